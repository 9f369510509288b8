package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/models"
	"github.com/gautam-ch/KrashiDukan/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderItemInput struct {
	Product     Number `json:"product"`
	ProductName string `json:"productName"`
	Quantity    Number `json:"quantity"`
	Price       Number `json:"price"`
	Category    string `json:"category"`
}

type OrderInput struct {
	Name        string           `json:"name"`
	Contact     string           `json:"contact"`
	Village     string           `json:"village"`
	ShopID      Number           `json:"shopId"`
	Items       []OrderItemInput `json:"items"`
	TotalAmount Number           `json:"totalAmount"`
}

type OrderService struct {
	DB        *gorm.DB
	Shops     *ShopService
	Analytics *AnalyticsService
}

func NewOrderService(db *gorm.DB, shops *ShopService, analytics *AnalyticsService) *OrderService {
	return &OrderService{DB: db, Shops: shops, Analytics: analytics}
}

var orderSort = pagination.Sort{Column: "created_at", Desc: true}

// lineItem is an order line after validation and merging.
type lineItem struct {
	ProductID   uint
	ProductName string
	Quantity    int
	Price       float64
	Category    string
}

// checkOrder validates the top-level fields together and returns the shop id.
func checkOrder(in *OrderInput) (uint, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Contact = strings.TrimSpace(in.Contact)
	in.Village = strings.TrimSpace(in.Village)

	var fields apperr.Fields
	if in.Name == "" {
		fields.Add("name", "Customer's name is required!")
	}
	if in.Contact == "" {
		fields.Add("contact", "Customer's contact is required!")
	}
	shopID, ok := in.ShopID.ID()
	if !ok {
		fields.Add("shopId", "Shop ID is required to set order")
	}
	if len(in.Items) == 0 {
		fields.Add("items", "Products are required to set order")
	}
	if fields != nil {
		return 0, apperr.Validation("Invalid order!", fields)
	}
	return shopID, nil
}

// mergeItems validates every item, collecting errors under items.<i>.<field>, and
// merges lines for the same product. The first line of a product keeps its name,
// price and category.
func mergeItems(items []OrderItemInput) ([]lineItem, error) {
	var fields apperr.Fields
	merged := make([]lineItem, 0, len(items))
	index := make(map[uint]int, len(items))

	for i, item := range items {
		key := func(field string) string {
			return fmt.Sprintf("items.%d.%s", i, field)
		}

		productID, ok := item.Product.ID()
		if !ok {
			fields.Add(key("product"), "Product id is required")
			continue
		}

		invalid := false
		switch {
		case !item.Quantity.Valid || item.Quantity.Value <= 0:
			fields.Add(key("quantity"), "Quantity must be greater than 0")
			invalid = true
		case !item.Quantity.Whole():
			fields.Add(key("quantity"), "Quantity must be a whole number")
			invalid = true
		}
		if !item.Price.Valid || item.Price.Value < 0 {
			fields.Add(key("price"), "Price must be a valid number")
			invalid = true
		}
		name := strings.TrimSpace(item.ProductName)
		if name == "" {
			fields.Add(key("productName"), "Product name is required")
			invalid = true
		}
		if invalid {
			continue
		}

		if at, seen := index[productID]; seen {
			merged[at].Quantity += int(item.Quantity.Value)
			continue
		}

		category := strings.TrimSpace(item.Category)
		if category == "" {
			category = models.DefaultCategory
		}
		index[productID] = len(merged)
		merged = append(merged, lineItem{
			ProductID:   productID,
			ProductName: name,
			Quantity:    int(item.Quantity.Value),
			Price:       item.Price.Value,
			Category:    category,
		})
	}

	if fields != nil {
		return nil, apperr.Validation("Invalid order items", fields)
	}
	return merged, nil
}

func orderTotal(items []lineItem) float64 {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total.Round(2).InexactFloat64()
}

// PlaceOrder validates in, checks that requesterID owns the shop, then in one
// transaction decrements stock for every line and stores the order.
func (s *OrderService) PlaceOrder(ctx context.Context, requesterID uint, in OrderInput) (*models.Order, error) {
	shopID, err := checkOrder(&in)
	if err != nil {
		return nil, err
	}

	if _, err := s.Shops.Authorize(ctx, shopID, requesterID); err != nil {
		return nil, err
	}

	items, err := mergeItems(in.Items)
	if err != nil {
		return nil, err
	}

	village := in.Village
	if village == "" {
		village = models.DefaultVillage
	}
	order := models.Order{
		ShopID:  shopID,
		Name:    in.Name,
		Contact: in.Contact,
		Village: village,
	}

	err = RunInTx(ctx, s.DB, func(tx *gorm.DB) error {
		ids := make([]uint, 0, len(items))
		for _, item := range items {
			ids = append(ids, item.ProductID)
		}

		var products []models.Product
		if err := tx.Where("id IN ? AND shop_id = ?", ids, shopID).Find(&products).Error; err != nil {
			return err
		}
		if len(products) != len(ids) {
			return apperr.NotFound("One or more products not found for this shop")
		}

		byID := make(map[uint]models.Product, len(products))
		for _, product := range products {
			byID[product.ID] = product
		}
		for _, item := range items {
			product := byID[item.ProductID]
			if product.Quantity < item.Quantity {
				return apperr.Conflict(fmt.Sprintf("Only %d available for %s", product.Quantity, product.Title))
			}
		}

		// a concurrent order may have taken the stock since it was read
		var affected int64
		for _, item := range items {
			result := tx.Model(&models.Product{}).
				Where("id = ? AND shop_id = ? AND quantity >= ?", item.ProductID, shopID, item.Quantity).
				UpdateColumn("quantity", gorm.Expr("quantity - ?", item.Quantity))
			if result.Error != nil {
				return result.Error
			}
			affected += result.RowsAffected
		}
		if affected != int64(len(items)) {
			return apperr.Conflict("Insufficient stock for one or more products")
		}

		if in.TotalAmount.Valid {
			order.TotalAmount = in.TotalAmount.Value
		} else {
			order.TotalAmount = orderTotal(items)
		}
		for _, item := range items {
			order.Items = append(order.Items, models.OrderItem{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				Price:       item.Price,
				Category:    item.Category,
			})
		}
		return tx.Create(&order).Error
	})
	if err != nil {
		return nil, dbError(err, "", "")
	}

	s.Analytics.Invalidate(ctx, shopID)
	return &order, nil
}

func orderKey(o *models.Order) pagination.Key {
	return pagination.Key{Time: o.CreatedAt, ID: o.ID}
}

// List pages through the shop's orders, newest first. search matches customer
// name, contact or village.
func (s *OrderService) List(ctx context.Context, shopID uint, search string, params pagination.Params) ([]models.Order, pagination.Page, error) {
	query := s.DB.WithContext(ctx).Model(&models.Order{}).Where("shop_id = ?", shopID)
	if search = strings.TrimSpace(search); search != "" {
		pattern := contains(search)
		query = query.Where("(LOWER(name) LIKE ? OR LOWER(contact) LIKE ? OR LOWER(village) LIKE ?)", pattern, pattern, pattern)
	}

	orders, page, err := pagination.Find(query, params.Strategy(orderSort, pagination.ModeOffset), orderKey)
	if err != nil {
		return nil, pagination.Page{}, apperr.Internal(err)
	}

	if err := s.attachItems(ctx, orders); err != nil {
		return nil, pagination.Page{}, apperr.Internal(err)
	}
	return orders, page, nil
}

func (s *OrderService) attachItems(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]uint, 0, len(orders))
	position := make(map[uint]int, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ID)
		position[orders[i].ID] = i
		orders[i].Items = []models.OrderItem{}
	}

	var items []models.OrderItem
	if err := s.DB.WithContext(ctx).Where("order_id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		i := position[item.OrderID]
		orders[i].Items = append(orders[i].Items, item)
	}
	return nil
}
