package middleware

import (
	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gin-gonic/gin"
)

// CheckLoginMiddleware aborts with 401 unless AuthMiddleware resolved a user.
func CheckLoginMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(UserIDKey); !exists {
			var err error = apperr.Unauthorized("Not authenticated!")
			if authErr, ok := c.Get(authErrorKey); ok {
				err = authErr.(error)
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Next()
	}
}
