package routers

import (
	"net/http"
	"time"

	"github.com/gautam-ch/KrashiDukan/authcookie"
	"github.com/gautam-ch/KrashiDukan/cache"
	"github.com/gautam-ch/KrashiDukan/config"
	"github.com/gautam-ch/KrashiDukan/handlers"
	"github.com/gautam-ch/KrashiDukan/jwt"
	"github.com/gautam-ch/KrashiDukan/limiter"
	"github.com/gautam-ch/KrashiDukan/middleware"
	"github.com/gautam-ch/KrashiDukan/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func newCache(cfg config.Config, rdb *redis.Client) cache.Cache {
	if cfg.Analytics.CacheBackend == "redis" && rdb != nil {
		return cache.NewRedisCache(rdb, "krashidukan:")
	}
	return cache.NewMemoryCache()
}

// SetupRouters wires services to routes. rdb may be nil, in which case analytics
// are cached in memory and sign-in is not rate limited.
func SetupRouters(cfg config.Config, db *gorm.DB, rdb *redis.Client) (*gin.Engine, error) {
	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.PrivateKeyPath, cfg.Auth.PublicKeyPath, cfg.Auth.AccessTokenTTL)
	if err != nil {
		return nil, err
	}

	cookies := authcookie.Options{
		Secure:   cfg.Auth.CookieSecure,
		SameSite: authcookie.ParseSameSite(cfg.Auth.CookieSameSite),
	}

	auth := services.NewAuthService(db, tokens, cfg.Auth)
	shops := services.NewShopService(db)
	analytics := services.NewAnalyticsService(db, newCache(cfg, rdb), cfg.Analytics.CacheTTL)
	products := services.NewProductService(db, analytics)
	orders := services.NewOrderService(db, shops, analytics)

	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}
	router.Use(cors.New(corsConfig), middleware.ErrorHandler())

	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	router.Static("/uploads", cfg.Server.UploadsDir)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Server is Live!"})
	})

	signupLimits := []gin.HandlerFunc{}
	signinLimits := []gin.HandlerFunc{}
	if cfg.RateLimit.Enabled && rdb != nil {
		manager := limiter.NewManager(rdb, limiter.NewStrategy(cfg.RateLimit.Strategy))
		signupLimits = append(signupLimits, middleware.RateLimitMiddleware(manager, "signup", cfg.RateLimit.Limit, cfg.RateLimit.Window))
		signinLimits = append(signinLimits, middleware.RateLimitMiddleware(manager, "signin", cfg.RateLimit.Limit, cfg.RateLimit.Window))
	}

	public := router.Group("/auth")
	{
		public.POST("/signup", append(signupLimits, func(c *gin.Context) {
			handlers.SignupHandler(c, auth)
		})...)
		public.POST("/signin", append(signinLimits, func(c *gin.Context) {
			handlers.SigninHandler(c, auth, cookies)
		})...)
		public.POST("/signout", func(c *gin.Context) {
			handlers.SignoutHandler(c, auth, cookies)
		})
		public.POST("/refresh", func(c *gin.Context) {
			handlers.RefreshHandler(c, auth, cookies)
		})
	}

	// everything below needs a signed-in user
	loginRequired := router.Group("/")
	loginRequired.Use(middleware.AuthMiddleware(auth, cookies), middleware.CheckLoginMiddleware())
	{
		loginRequired.GET("/auth/me", func(c *gin.Context) {
			handlers.MeHandler(c, auth, shops)
		})
		loginRequired.POST("/createShop", func(c *gin.Context) {
			handlers.CreateShopHandler(c, shops)
		})
		loginRequired.POST("/addOwner", func(c *gin.Context) {
			handlers.AddOwnerHandler(c, shops)
		})
		loginRequired.GET("/shop/me", func(c *gin.Context) {
			handlers.GetMyShopHandler(c, shops)
		})
		loginRequired.POST("/order", func(c *gin.Context) {
			handlers.PlaceOrderHandler(c, orders)
		})
		loginRequired.GET("/order/:shopId", middleware.CheckShopOwnerMiddleware(shops), func(c *gin.Context) {
			handlers.GetOrderHistoryHandler(c, orders)
		})

		// shop-scoped routes, owners only
		ownerRequired := loginRequired.Group("/shops/:shopId")
		ownerRequired.Use(middleware.CheckShopOwnerMiddleware(shops))
		{
			ownerRequired.GET("/analytics", func(c *gin.Context) {
				handlers.GetAnalyticsHandler(c, analytics)
			})
			ownerRequired.POST("/product", func(c *gin.Context) {
				handlers.CreateProductHandler(c, products)
			})
			ownerRequired.POST("/product/image", func(c *gin.Context) {
				handlers.UploadImageHandler(c, cfg.Server.UploadsDir)
			})
			ownerRequired.GET("/products", func(c *gin.Context) {
				handlers.GetProductListHandler(c, products)
			})
			ownerRequired.GET("/products/export/csv", func(c *gin.Context) {
				handlers.ExportProductsHandler(c, products, handlers.ExportCSV)
			})
			ownerRequired.GET("/products/export/pdf", func(c *gin.Context) {
				handlers.ExportProductsHandler(c, products, handlers.ExportPDF)
			})
			ownerRequired.GET("/product/:productId", func(c *gin.Context) {
				handlers.GetProductHandler(c, products)
			})
			ownerRequired.PUT("/product/:productId", func(c *gin.Context) {
				handlers.UpdateProductHandler(c, products)
			})
			ownerRequired.DELETE("/product/:productId", func(c *gin.Context) {
				handlers.DeleteProductHandler(c, products)
			})
		}
	}

	return router, nil
}
