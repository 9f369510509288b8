package services

import (
	"context"
	"testing"
	"time"

	"github.com/gautam-ch/KrashiDukan/cache"
	"github.com/gautam-ch/KrashiDukan/jwt"
	"github.com/gautam-ch/KrashiDukan/models"
	"github.com/gautam-ch/KrashiDukan/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	auth      *AuthService
	shops     *ShopService
	products  *ProductService
	orders    *OrderService
	analytics *AnalyticsService
	cache     *cache.MemoryCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	memory := cache.NewMemoryCache()
	analytics := NewAnalyticsService(db, memory, time.Minute)
	shops := NewShopService(db)

	return &fixture{
		db: db,
		auth: &AuthService{
			DB:         db,
			Tokens:     jwt.NewHMACManager("test-secret", 30*time.Minute),
			RefreshTTL: 30 * 24 * time.Hour,
			BcryptCost: bcrypt.MinCost,
			Now:        time.Now,
		},
		shops:     shops,
		products:  NewProductService(db, analytics),
		orders:    NewOrderService(db, shops, analytics),
		analytics: analytics,
		cache:     memory,
	}
}

func (f *fixture) user(t *testing.T, name string) *models.User {
	t.Helper()

	user, err := f.auth.Signup(context.Background(), SignupInput{
		Name:     name,
		Email:    name + "@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) shop(t *testing.T, owner *models.User) *models.Shop {
	t.Helper()

	shop, err := f.shops.CreateShop(context.Background(), owner.ID, CreateShopInput{Name: owner.Name + "'s shop"})
	require.NoError(t, err)
	return shop
}

func (f *fixture) product(t *testing.T, shopID uint, title string, quantity int, price float64) *models.Product {
	t.Helper()

	description := title + " description"
	expiry := time.Now().UTC().AddDate(0, 6, 0).Format("2006-01-02")
	product, err := f.products.Create(context.Background(), shopID, ProductInput{
		Title:        &title,
		Description:  &description,
		CostPrice:    Num(price / 2),
		SellingPrice: Num(price),
		ExpiryDate:   &expiry,
		Quantity:     Num(float64(quantity)),
	})
	require.NoError(t, err)
	return product
}

func (f *fixture) stock(t *testing.T, productID uint) int {
	t.Helper()

	var product models.Product
	require.NoError(t, f.db.First(&product, productID).Error)
	return product.Quantity
}

func line(product *models.Product, quantity float64) OrderItemInput {
	return OrderItemInput{
		Product:     Num(float64(product.ID)),
		ProductName: product.Title,
		Quantity:    Num(quantity),
		Price:       Num(product.SellingPrice),
		Category:    product.Category,
	}
}
