package middleware

import (
	"log"
	"net/http"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gin-gonic/gin"
)

// ErrorHandler renders the last error a handler pushed with c.Error as
// {success:false, message, errors}. Internal causes are logged, never sent.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		appErr := apperr.From(err)
		if appErr.Status >= http.StatusInternalServerError {
			log.Printf("[%s] %s %s: %v", GetRequestID(c), c.Request.Method, c.Request.URL.Path, err)
		} else {
			log.Printf("[%s] %s %s: %d %s", GetRequestID(c), c.Request.Method, c.Request.URL.Path, appErr.Status, appErr.Message)
		}

		if c.Writer.Written() {
			return
		}

		c.JSON(appErr.Status, gin.H{
			"success": false,
			"message": appErr.Message,
			"errors":  appErr.Fields,
		})
	}
}
