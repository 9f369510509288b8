package authcookie

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	AccessTokenName  = "accessToken"
	RefreshTokenName = "refreshToken"
)

// Options mirror the cookie attributes shared by both auth cookies.
type Options struct {
	Secure   bool
	SameSite http.SameSite
}

// ParseSameSite maps "Lax", "Strict" or "None" to http.SameSite, defaulting to Lax.
func ParseSameSite(value string) http.SameSite {
	switch strings.ToLower(value) {
	case "none":
		return http.SameSiteNoneMode
	case "strict":
		return http.SameSiteStrictMode
	default:
		return http.SameSiteLaxMode
	}
}

func (o Options) set(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(o.SameSite)
	c.SetCookie(name, value, maxAge, "/", "", o.Secure, true)
}

func (o Options) SetAccessToken(c *gin.Context, token string, ttl time.Duration) {
	o.set(c, AccessTokenName, token, int(ttl.Seconds()))
}

func (o Options) SetRefreshToken(c *gin.Context, token string, ttl time.Duration) {
	o.set(c, RefreshTokenName, token, int(ttl.Seconds()))
}

// Clear expires both auth cookies.
func (o Options) Clear(c *gin.Context) {
	o.set(c, AccessTokenName, "", -1)
	o.set(c, RefreshTokenName, "", -1)
}

// Read returns the access and refresh tokens carried by the request, empty when absent.
func Read(c *gin.Context) (accessToken, refreshToken string) {
	accessToken, _ = c.Cookie(AccessTokenName)
	refreshToken, _ = c.Cookie(RefreshTokenName)
	return accessToken, refreshToken
}
