package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/models"
	"github.com/gautam-ch/KrashiDukan/pagination"
	"gorm.io/gorm"
)

// ProductInput is used for both create and partial update; absent fields are nil
// or unset.
type ProductInput struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Img          *string   `json:"img"`
	Category     *string   `json:"category"`
	SprayCount   Number    `json:"sprayCount"`
	CostPrice    Number    `json:"costPrice"`
	SellingPrice Number    `json:"sellingPrice"`
	Tags         *[]string `json:"tags"`
	ExpiryDate   *string   `json:"expiryDate"`
	Quantity     Number    `json:"quantity"`
}

// ProductFilter narrows product listings and exports.
type ProductFilter struct {
	Search     string
	Title      string
	Category   string
	SprayCount *int
}

type ProductService struct {
	DB        *gorm.DB
	Analytics *AnalyticsService
}

func NewProductService(db *gorm.DB, analytics *AnalyticsService) *ProductService {
	return &ProductService{DB: db, Analytics: analytics}
}

var productSort = pagination.Sort{Column: "expiry_date"}

// ParseExpiryDate accepts a calendar date or an RFC 3339 timestamp.
func ParseExpiryDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02", time.RFC3339Nano} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func cleanTags(tags []string) []string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			cleaned = append(cleaned, tag)
		}
	}
	return cleaned
}

func checkAmount(fields *apperr.Fields, name string, n Number, whole bool) {
	if !n.Set {
		return
	}
	switch {
	case !n.Valid:
		fields.Add(name, label(name)+" must be a valid number")
	case n.Value < 0:
		fields.Add(name, label(name)+" cannot be negative")
	case whole && !n.Whole():
		fields.Add(name, label(name)+" must be a whole number")
	}
}

// apply validates in and copies its present fields onto product, returning the
// columns it touched. With create set, the fields a product cannot exist without
// are required.
func (in ProductInput) apply(product *models.Product, create bool) ([]string, error) {
	var missing, fields apperr.Fields

	if create {
		required := map[string]bool{
			"title":        in.Title != nil && strings.TrimSpace(*in.Title) != "",
			"description":  in.Description != nil && strings.TrimSpace(*in.Description) != "",
			"costPrice":    in.CostPrice.Set,
			"sellingPrice": in.SellingPrice.Set,
			"expiryDate":   in.ExpiryDate != nil && strings.TrimSpace(*in.ExpiryDate) != "",
			"quantity":     in.Quantity.Set,
		}
		for name, present := range required {
			if !present {
				missing.Add(name, label(name)+" of product is required!")
			}
		}
		if missing != nil {
			return nil, apperr.Validation("All fields are required!", missing)
		}
	}

	if in.Title != nil {
		if title := strings.TrimSpace(*in.Title); title == "" {
			fields.Add("title", "Title cannot be empty")
		} else {
			product.Title = title
		}
	}
	if in.Description != nil {
		if description := strings.TrimSpace(*in.Description); description == "" {
			fields.Add("description", "Description cannot be empty")
		} else {
			product.Description = description
		}
	}
	if in.ExpiryDate != nil {
		if expiry, ok := ParseExpiryDate(*in.ExpiryDate); ok {
			product.ExpiryDate = expiry
		} else {
			fields.Add("expiryDate", "Expiry date must be YYYY-MM-DD or RFC 3339")
		}
	}

	checkAmount(&fields, "costPrice", in.CostPrice, false)
	checkAmount(&fields, "sellingPrice", in.SellingPrice, false)
	checkAmount(&fields, "quantity", in.Quantity, true)
	checkAmount(&fields, "sprayCount", in.SprayCount, true)
	if fields != nil {
		return nil, apperr.Validation("Invalid product details!", fields)
	}

	var columns []string
	if in.Title != nil {
		columns = append(columns, "title")
	}
	if in.Description != nil {
		columns = append(columns, "description")
	}
	if in.ExpiryDate != nil {
		columns = append(columns, "expiry_date")
	}

	if in.CostPrice.Set {
		product.CostPrice = in.CostPrice.Value
		columns = append(columns, "cost_price")
	}
	if in.SellingPrice.Set {
		product.SellingPrice = in.SellingPrice.Value
		columns = append(columns, "selling_price")
	}
	if in.Quantity.Set {
		product.Quantity = int(in.Quantity.Value)
		columns = append(columns, "quantity")
	}
	if in.SprayCount.Set {
		product.SprayCount = int(in.SprayCount.Value)
		columns = append(columns, "spray_count")
	}
	if in.Img != nil {
		product.Img = strings.TrimSpace(*in.Img)
		columns = append(columns, "img")
	}
	if in.Category != nil {
		product.Category = strings.TrimSpace(*in.Category)
		columns = append(columns, "category")
	}
	if product.Category == "" {
		product.Category = models.DefaultCategory
	}
	if in.Tags != nil {
		product.Tags = cleanTags(*in.Tags)
		columns = append(columns, "tags")
	}
	if product.Tags == nil {
		product.Tags = []string{}
	}
	return columns, nil
}

func (s *ProductService) Create(ctx context.Context, shopID uint, in ProductInput) (*models.Product, error) {
	product := models.Product{ShopID: shopID}
	if _, err := in.apply(&product, true); err != nil {
		return nil, err
	}

	if err := s.DB.WithContext(ctx).Create(&product).Error; err != nil {
		return nil, apperr.Internal(err)
	}
	s.Analytics.Invalidate(ctx, shopID)
	return &product, nil
}

// Get loads productID, scoped to shopID.
func (s *ProductService) Get(ctx context.Context, shopID, productID uint) (*models.Product, error) {
	var product models.Product
	err := s.DB.WithContext(ctx).Where("id = ? AND shop_id = ?", productID, shopID).First(&product).Error
	if err != nil {
		return nil, dbError(err, "Product not found!", "")
	}
	return &product, nil
}

func (s *ProductService) Update(ctx context.Context, shopID, productID uint, in ProductInput) (*models.Product, error) {
	product, err := s.Get(ctx, shopID, productID)
	if err != nil {
		return nil, err
	}
	columns, err := in.apply(product, false)
	if err != nil {
		return nil, err
	}

	// Write only the requested columns; a decrement committed since Get must survive.
	err = RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		if len(columns) > 0 {
			err := tx.Model(product).
				Where("shop_id = ?", shopID).
				Select(columns).
				Updates(product).Error
			if err != nil {
				return apperr.Internal(err)
			}
		}
		return tx.Where("id = ? AND shop_id = ?", productID, shopID).First(product).Error
	})
	if err != nil {
		return nil, dbError(err, "Product not found!", "")
	}
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, shopID, productID uint) error {
	result := s.DB.WithContext(ctx).Where("id = ? AND shop_id = ?", productID, shopID).Delete(&models.Product{})
	if result.Error != nil {
		return apperr.Internal(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.NotFound("Product not found!")
	}
	s.Analytics.Invalidate(ctx, shopID)
	return nil
}

// ParseProductFilter reads search, title, category and sprayCount from a query string.
func ParseProductFilter(values url.Values) (ProductFilter, error) {
	filter := ProductFilter{
		Search: strings.TrimSpace(values.Get("search")),
		Title:  strings.TrimSpace(values.Get("title")),
	}

	category := strings.TrimSpace(values.Get("category"))
	if !strings.EqualFold(category, "all") {
		filter.Category = category
	}

	if raw := strings.TrimSpace(values.Get("sprayCount")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return filter, apperr.Validation("Invalid spray count", apperr.Fields{"sprayCount": "Spray count must be a whole number"})
		}
		filter.SprayCount = &n
	}
	return filter, nil
}

func contains(value string) string {
	return "%" + strings.ToLower(value) + "%"
}

func (s *ProductService) filtered(ctx context.Context, shopID uint, filter ProductFilter) *gorm.DB {
	query := s.DB.WithContext(ctx).Model(&models.Product{}).Where("shop_id = ?", shopID)

	if filter.Search != "" {
		pattern := contains(filter.Search)
		query = query.Where(
			"(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(category) LIKE ? OR LOWER(tags) LIKE ?)",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.Title != "" {
		query = query.Where("LOWER(title) LIKE ?", contains(filter.Title))
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.SprayCount != nil {
		query = query.Where("spray_count = ?", *filter.SprayCount)
	}
	return query
}

func productKey(p *models.Product) pagination.Key {
	return pagination.Key{Time: p.ExpiryDate, ID: p.ID}
}

// List pages through the shop's products, soonest expiry first.
func (s *ProductService) List(ctx context.Context, shopID uint, filter ProductFilter, params pagination.Params) ([]models.Product, pagination.Page, error) {
	strategy := params.Strategy(productSort, pagination.ModeKeyset)
	products, page, err := pagination.Find(s.filtered(ctx, shopID, filter), strategy, productKey)
	if err != nil {
		return nil, pagination.Page{}, apperr.Internal(err)
	}
	return products, page, nil
}

// All returns every product matching filter, in listing order.
func (s *ProductService) All(ctx context.Context, shopID uint, filter ProductFilter) ([]models.Product, error) {
	var products []models.Product
	err := s.filtered(ctx, shopID, filter).Order("expiry_date ASC").Order("id ASC").Find(&products).Error
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return products, nil
}
