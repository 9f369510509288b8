package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/models"
	"github.com/gautam-ch/KrashiDukan/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func strPtr(s string) *string {
	return &s
}

func TestCreateProductDefaultsAndValidation(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	shop := f.shop(t, owner)
	ctx := context.Background()

	_, err := f.products.Create(ctx, shop.ID, ProductInput{Title: strPtr("Urea")})
	appErr := apperr.From(err)
	require.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Len(t, appErr.Fields, 5)

	product, err := f.products.Create(ctx, shop.ID, ProductInput{
		Title:        strPtr("Urea"),
		Description:  strPtr("Nitrogen fertilizer"),
		CostPrice:    Num(200),
		SellingPrice: Num(250),
		ExpiryDate:   strPtr("2027-03-01"),
		Quantity:     Num(12),
		Tags:         &[]string{" granular ", ""},
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCategory, product.Category)
	assert.Equal(t, []string{"granular"}, product.Tags)
	assert.Equal(t, time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC), product.ExpiryDate)

	_, err = f.products.Create(ctx, shop.ID, ProductInput{
		Title:        strPtr("Bad"),
		Description:  strPtr("Bad"),
		CostPrice:    Num(-1),
		SellingPrice: Number{Set: true},
		ExpiryDate:   strPtr("soon"),
		Quantity:     Num(1.5),
	})
	appErr = apperr.From(err)
	require.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, []string{"costPrice", "expiryDate", "quantity", "sellingPrice"}, fieldNames(appErr.Fields))
}

func fieldNames(fields apperr.Fields) []string {
	names := make([]string, 0, len(fields))
	for _, name := range []string{"costPrice", "description", "expiryDate", "quantity", "sellingPrice", "title"} {
		if _, ok := fields[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

func TestUpdateAndDeleteProductAreShopScoped(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	shop := f.shop(t, owner)
	rival := f.user(t, "rival")
	rivalShop := f.shop(t, rival)
	urea := f.product(t, shop.ID, "Urea", 10, 250)
	ctx := context.Background()

	updated, err := f.products.Update(ctx, shop.ID, urea.ID, ProductInput{Quantity: Num(20), Category: strPtr("fertilizer")})
	require.NoError(t, err)
	assert.Equal(t, 20, updated.Quantity)
	assert.Equal(t, "fertilizer", updated.Category)
	assert.Equal(t, "Urea", updated.Title)

	_, err = f.products.Update(ctx, shop.ID, urea.ID, ProductInput{Quantity: Num(-3)})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))

	_, err = f.products.Update(ctx, rivalShop.ID, urea.ID, ProductInput{Quantity: Num(1)})
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))

	err = f.products.Delete(ctx, rivalShop.ID, urea.ID)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))

	require.NoError(t, f.products.Delete(ctx, shop.ID, urea.ID))
	_, err = f.products.Get(ctx, shop.ID, urea.ID)
	assert.Equal(t, http.StatusNotFound, apperr.StatusOf(err))
}

func TestUpdateKeepsConcurrentStockChanges(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	shop := f.shop(t, owner)
	urea := f.product(t, shop.ID, "Urea", 10, 250)
	ctx := context.Background()

	// sell 3 units between the update's read and its write
	sold := false
	err := f.db.Callback().Update().Before("gorm:update").Register("test:sale", func(tx *gorm.DB) {
		if sold || tx.Statement.Table != "products" {
			return
		}
		sold = true
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE products SET quantity = quantity - ? WHERE id = ?", 3, urea.ID)
	})
	require.NoError(t, err)

	updated, err := f.products.Update(ctx, shop.ID, urea.ID, ProductInput{Title: strPtr("Urea 45kg")})
	require.NoError(t, err)
	require.True(t, sold)
	assert.Equal(t, "Urea 45kg", updated.Title)
	assert.Equal(t, 7, updated.Quantity)
	assert.Equal(t, 7, f.stock(t, urea.ID))

	updated, err = f.products.Update(ctx, shop.ID, urea.ID, ProductInput{Quantity: Num(15)})
	require.NoError(t, err)
	assert.Equal(t, 15, updated.Quantity)
	assert.Equal(t, 15, f.stock(t, urea.ID))
	assert.Equal(t, "Urea 45kg", updated.Title)
}

func TestListProductsFilters(t *testing.T) {
	f := newFixture(t)
	owner := f.user(t, "owner")
	shop := f.shop(t, owner)
	ctx := context.Background()

	create := func(title, category string, sprayCount int, tags ...string) {
		_, err := f.products.Create(ctx, shop.ID, ProductInput{
			Title:        strPtr(title),
			Description:  strPtr(title + " for crops"),
			Category:     strPtr(category),
			SprayCount:   Num(float64(sprayCount)),
			CostPrice:    Num(10),
			SellingPrice: Num(20),
			ExpiryDate:   strPtr("2027-01-01"),
			Quantity:     Num(5),
			Tags:         &tags,
		})
		require.NoError(t, err)
	}
	create("Urea", "fertilizer", 2, "granular")
	create("Imidacloprid", "insecticide (sucking)", 5, "liquid", "fast")
	create("Mancozeb", "fungicide", 5, "organic")

	list := func(query url.Values) []models.Product {
		filter, err := ParseProductFilter(query)
		require.NoError(t, err)
		params, err := pagination.ParseQuery(query)
		require.NoError(t, err)
		products, _, err := f.products.List(ctx, shop.ID, filter, params)
		require.NoError(t, err)
		return products
	}

	assert.Len(t, list(url.Values{}), 3)
	assert.Len(t, list(url.Values{"category": {"all"}}), 3)
	assert.Len(t, list(url.Values{"category": {"fungicide"}}), 1)
	assert.Len(t, list(url.Values{"sprayCount": {"5"}}), 2)
	assert.Len(t, list(url.Values{"search": {"LIQUID"}}), 1)
	assert.Len(t, list(url.Values{"search": {"crops"}}), 3)
	assert.Len(t, list(url.Values{"title": {"urea"}}), 1)

	_, err := ParseProductFilter(url.Values{"sprayCount": {"many"}})
	assert.Equal(t, http.StatusBadRequest, apperr.StatusOf(err))
}

func TestExportCSV(t *testing.T) {
	products := []models.Product{{
		Title:        "Urea, 50kg",
		Category:     "fertilizer",
		SprayCount:   2,
		Quantity:     7,
		CostPrice:    200,
		SellingPrice: 250.5,
		ExpiryDate:   time.Date(2027, 3, 1, 0, 0, 0, 0, time.UTC),
		Tags:         []string{"granular", "premium"},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteProductsCSV(&buf, products))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportHeader, records[0])
	assert.Equal(t, []string{"Urea, 50kg", "fertilizer", "2", "7", "200.00", "250.50", "2027-03-01", "granular, premium"}, records[1])
}

func TestExportPDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteProductsPDF(&buf, "Green Agro", []models.Product{{Title: "Urea", ExpiryDate: time.Now()}}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
}
