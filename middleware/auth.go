package middleware

import (
	"errors"
	"log"
	"net/http"

	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/authcookie"
	"github.com/gautam-ch/KrashiDukan/jwt"
	"github.com/gautam-ch/KrashiDukan/services"
	"github.com/gin-gonic/gin"
)

const (
	UserIDKey    = "UserID"
	authErrorKey = "AuthError"
)

// AuthMiddleware resolves the requester from the auth cookies and stores the user id
// under UserIDKey. An expired or missing access token is replaced using the refresh
// token. It never aborts; CheckLoginMiddleware turns a missing user id into a 401.
func AuthMiddleware(auth *services.AuthService, cookies authcookie.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		accessToken, refreshToken := authcookie.Read(c)
		if accessToken == "" && refreshToken == "" {
			c.Next()
			return
		}

		if accessToken != "" {
			userID, err := auth.Authenticate(accessToken)
			if err == nil {
				c.Set(UserIDKey, userID)
				c.Next()
				return
			}
			if !errors.Is(err, jwt.ErrTokenExpired) {
				log.Printf("access token rejected: %v", err)
				c.Set(authErrorKey, apperr.Unauthorized("Token is invalid!"))
				c.Next()
				return
			}
		}

		if refreshToken == "" {
			cookies.Clear(c)
			c.Set(authErrorKey, apperr.Unauthorized("Session expired"))
			c.Next()
			return
		}

		newAccessToken, userID, err := auth.Refresh(c.Request.Context(), refreshToken)
		if err != nil {
			if apperr.StatusOf(err) == http.StatusUnauthorized {
				cookies.Clear(c)
			}
			c.Set(authErrorKey, err)
			c.Next()
			return
		}

		cookies.SetAccessToken(c, newAccessToken, auth.AccessTokenTTL())
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated requester, or 0.
func UserID(c *gin.Context) uint {
	userID, _ := c.Get(UserIDKey)
	id, _ := userID.(uint)
	return id
}
