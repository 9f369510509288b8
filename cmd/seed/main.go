// Command seed fills a shop with demo products.
//
//	go run ./cmd/seed -shop 1 -count 100
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/gautam-ch/KrashiDukan/config"
	"github.com/gautam-ch/KrashiDukan/models"
	"github.com/gautam-ch/KrashiDukan/services"
	"gorm.io/gorm"
)

var (
	categories  = []string{"fertilizer", "insecticide (sucking)", "insecticide (chewing)", "pesticide", "fungicide"}
	sprayCounts = []int{2, 5, 10, 20}
	tagsPool    = []string{"fast", "seasonal", "liquid", "granular", "organic", "premium"}
)

func buildProducts(shopID uint, count int, now time.Time, rng *rand.Rand) []models.Product {
	pick := func(list []string) string {
		return list[rng.Intn(len(list))]
	}

	products := make([]models.Product, 0, count)
	for i := 1; i <= count; i++ {
		category := pick(categories)
		price := 100 + i*5
		cost := price - 20
		if cost < 40 {
			cost = 40
		}

		products = append(products, models.Product{
			ShopID:       shopID,
			Title:        fmt.Sprintf("%s product %d", category, i),
			Description:  fmt.Sprintf("Sample %s product %d for demo seeding", category, i),
			Category:     category,
			SprayCount:   sprayCounts[rng.Intn(len(sprayCounts))],
			CostPrice:    float64(cost),
			SellingPrice: float64(price),
			Tags:         []string{pick(tagsPool), pick(tagsPool)},
			ExpiryDate:   now.AddDate(0, 6+i%12, 0).UTC(),
			Quantity:     10 + i%30,
		})
	}
	return products
}

func seed(ctx context.Context, db *gorm.DB, shopID uint, count int) (int, error) {
	var shop models.Shop
	if err := db.WithContext(ctx).First(&shop, shopID).Error; err != nil {
		return 0, fmt.Errorf("shop %d: %w", shopID, err)
	}

	products := buildProducts(shop.ID, count, time.Now(), rand.New(rand.NewSource(time.Now().UnixNano())))
	err := services.RunInTx(ctx, db, func(tx *gorm.DB) error {
		return tx.CreateInBatches(products, 50).Error
	})
	if err != nil {
		return 0, err
	}
	return len(products), nil
}

func main() {
	defaultShop, _ := strconv.ParseUint(os.Getenv("SEED_SHOP_ID"), 10, 64)
	shopID := flag.Uint64("shop", defaultShop, "shop id to seed (defaults to SEED_SHOP_ID)")
	count := flag.Int("count", 100, "number of products to create")
	flag.Parse()

	if *shopID == 0 {
		log.Fatal("missing -shop (or SEED_SHOP_ID)")
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := config.SetupDatabase(cfg)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	created, err := seed(context.Background(), db, uint(*shopID), *count)
	if err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("seeded %d products for shop %d", created, *shopID)
}
