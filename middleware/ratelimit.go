package middleware

import (
	"log"
	"time"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/limiter"
	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware allows limit requests per window and client IP under scope.
// When the limiter itself fails the request goes through.
func RateLimitMiddleware(manager *limiter.Manager, scope string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := manager.Allow(c.Request.Context(), scope+":"+c.ClientIP(), limit, window)
		if err != nil {
			log.Printf("[%s] rate limiter unavailable: %v", GetRequestID(c), err)
			c.Next()
			return
		}

		if !allowed {
			_ = c.Error(apperr.TooManyRequests("Too many requests, please try again later"))
			c.Abort()
			return
		}

		c.Next()
	}
}
