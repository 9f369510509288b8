package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/cache"
	"github.com/gautam-ch/KrashiDukan/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const trailingMonths = 6

type MonthlySales struct {
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Label  string  `json:"label"`
	Total  float64 `json:"total"`
	Orders int64   `json:"orders"`
}

type Analytics struct {
	TotalProducts     int64          `json:"totalProducts"`
	TotalOrders       int64          `json:"totalOrders"`
	TotalSales        float64        `json:"totalSales"`
	AverageOrderValue float64        `json:"averageOrderValue"`
	SalesByMonth      []MonthlySales `json:"salesByMonth"`
}

type AnalyticsService struct {
	DB    *gorm.DB
	Cache cache.Cache
	TTL   time.Duration
	Now   func() time.Time
}

func NewAnalyticsService(db *gorm.DB, c cache.Cache, ttl time.Duration) *AnalyticsService {
	return &AnalyticsService{DB: db, Cache: c, TTL: ttl, Now: time.Now}
}

func analyticsKey(shopID uint) string {
	return fmt.Sprintf("analytics:%d", shopID)
}

// Get returns the shop's analytics and whether they came from the cache.
// refresh drops the cached entry first.
func (s *AnalyticsService) Get(ctx context.Context, shopID uint, refresh bool) (*Analytics, bool, error) {
	key := analyticsKey(shopID)

	if refresh {
		s.Invalidate(ctx, shopID)
	} else {
		var cached Analytics
		hit, err := s.Cache.Get(ctx, key, &cached)
		if err != nil {
			log.Printf("analytics cache read failed for shop %d: %v", shopID, err)
		}
		if hit {
			return &cached, true, nil
		}
	}

	analytics, err := s.compute(ctx, shopID)
	if err != nil {
		return nil, false, apperr.Internal(err)
	}

	if err := s.Cache.Set(ctx, key, analytics, s.TTL); err != nil {
		log.Printf("analytics cache write failed for shop %d: %v", shopID, err)
	}
	return analytics, false, nil
}

// Invalidate evicts the cached analytics of shopID. Failures are logged only.
func (s *AnalyticsService) Invalidate(ctx context.Context, shopID uint) {
	if err := s.Cache.Delete(ctx, analyticsKey(shopID)); err != nil {
		log.Printf("analytics cache evict failed for shop %d: %v", shopID, err)
	}
}

func (s *AnalyticsService) compute(ctx context.Context, shopID uint) (*Analytics, error) {
	db := s.DB.WithContext(ctx)
	analytics := &Analytics{}

	if err := db.Model(&models.Product{}).Where("shop_id = ?", shopID).Count(&analytics.TotalProducts).Error; err != nil {
		return nil, err
	}

	var totals struct {
		Orders int64
		Sales  float64
	}
	err := db.Model(&models.Order{}).
		Select("COUNT(*) AS orders, COALESCE(SUM(total_amount), 0) AS sales").
		Where("shop_id = ?", shopID).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	sales := decimal.NewFromFloat(totals.Sales).Round(2)
	analytics.TotalOrders = totals.Orders
	analytics.TotalSales = sales.InexactFloat64()
	if totals.Orders > 0 {
		analytics.AverageOrderValue = sales.Div(decimal.NewFromInt(totals.Orders)).Round(2).InexactFloat64()
	}

	months, start := trailingMonthBuckets(s.Now().UTC())

	var recent []models.Order
	err = db.Select("id", "total_amount", "created_at").
		Where("shop_id = ? AND created_at >= ?", shopID, start).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}

	sums := make([]decimal.Decimal, len(months))
	for _, order := range recent {
		created := order.CreatedAt.UTC()
		for i := range months {
			if months[i].Year == created.Year() && months[i].Month == int(created.Month()) {
				sums[i] = sums[i].Add(decimal.NewFromFloat(order.TotalAmount))
				months[i].Orders++
				break
			}
		}
	}
	for i := range months {
		months[i].Total = sums[i].Round(2).InexactFloat64()
	}
	analytics.SalesByMonth = months

	return analytics, nil
}

// trailingMonthBuckets returns zeroed buckets for the six calendar months ending
// with now's month, oldest first, and the instant the oldest one starts.
func trailingMonthBuckets(now time.Time) ([]MonthlySales, time.Time) {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := current.AddDate(0, -(trailingMonths - 1), 0)

	months := make([]MonthlySales, 0, trailingMonths)
	for i := 0; i < trailingMonths; i++ {
		month := start.AddDate(0, i, 0)
		months = append(months, MonthlySales{
			Year:  month.Year(),
			Month: int(month.Month()),
			Label: month.Format("Jan 2006"),
		})
	}
	return months, start
}
