package routers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gautam-ch/KrashiDukan/authcookie"
	"github.com/gautam-ch/KrashiDukan/config"
	"github.com/gautam-ch/KrashiDukan/jwt"
	"github.com/gautam-ch/KrashiDukan/testutil"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "router-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

// client keeps cookies between requests the way a browser would.
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]string
}

func newClient(t *testing.T) *client {
	t.Helper()

	cfg := config.Default()
	cfg.Auth.JWTSecret = testSecret
	cfg.Auth.BcryptCost = 4
	cfg.Server.UploadsDir = t.TempDir()

	router, err := SetupRouters(cfg, testutil.NewDB(t), nil)
	require.NoError(t, err)

	return &client{t: t, router: router, cookies: map[string]string{}}
}

func (c *client) do(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for name, value := range c.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(c.cookies, cookie.Name)
		} else {
			c.cookies[cookie.Name] = cookie.Value
		}
	}

	decoded := map[string]interface{}{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func (c *client) signedIn(name string) {
	c.t.Helper()

	w, _ := c.do(http.MethodPost, "/auth/signup", gin.H{"name": name, "email": name + "@example.com", "password": "secret123"})
	require.Equal(c.t, http.StatusCreated, w.Code)

	w, _ = c.do(http.MethodPost, "/auth/signin", gin.H{"email": name + "@example.com", "password": "secret123"})
	require.Equal(c.t, http.StatusOK, w.Code)
	require.NotEmpty(c.t, c.cookies[authcookie.AccessTokenName])
	require.NotEmpty(c.t, c.cookies[authcookie.RefreshTokenName])
}

func (c *client) createShop(name string) int {
	c.t.Helper()

	w, body := c.do(http.MethodPost, "/createShop", gin.H{"name": name})
	require.Equal(c.t, http.StatusCreated, w.Code)
	return int(body["shop"].(map[string]interface{})["id"].(float64))
}

func expiredAccessToken(t *testing.T, userID uint) string {
	t.Helper()

	token, _, err := jwt.NewHMACManager(testSecret, -time.Minute).GenerateToken(userID)
	require.NoError(t, err)
	return token
}

func TestHealth(t *testing.T) {
	c := newClient(t)

	w, body := c.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Server is Live!", body["message"])
}

func TestOrderFlowDecrementsStock(t *testing.T) {
	c := newClient(t)
	c.signedIn("owner")
	shopID := c.createShop("Green Agro")

	w, body := c.do(http.MethodPost, fmt.Sprintf("/shops/%d/product", shopID), gin.H{
		"title":        "Urea",
		"description":  "Nitrogen fertilizer",
		"costPrice":    "200",
		"sellingPrice": 250,
		"expiryDate":   "2027-03-01",
		"quantity":     10,
		"category":     "fertilizer",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	productID := int(body["product"].(map[string]interface{})["id"].(float64))

	w, body = c.do(http.MethodPost, "/order", gin.H{
		"name":    "Ramesh",
		"contact": "9876543210",
		"shopId":  shopID,
		"items": []gin.H{{
			"product":     productID,
			"productName": "Urea",
			"quantity":    "3",
			"price":       250,
		}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := body["order"].(map[string]interface{})
	assert.Equal(t, 750.0, order["totalAmount"])
	assert.Equal(t, "N/A", order["village"])

	w, body = c.do(http.MethodGet, fmt.Sprintf("/shops/%d/product/%d", shopID, productID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7.0, body["product"].(map[string]interface{})["quantity"])

	w, body = c.do(http.MethodGet, fmt.Sprintf("/order/%d", shopID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["orders"], 1)
	assert.Equal(t, 1.0, body["pagination"].(map[string]interface{})["totalCount"])

	w, body = c.do(http.MethodGet, fmt.Sprintf("/shops/%d/analytics", shopID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["cached"])
	assert.Equal(t, 750.0, body["analytics"].(map[string]interface{})["totalSales"])

	w, body = c.do(http.MethodGet, fmt.Sprintf("/shops/%d/analytics", shopID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["cached"])
}

func TestOrderValidationErrorsAreKeyedByItem(t *testing.T) {
	c := newClient(t)
	c.signedIn("owner")
	shopID := c.createShop("Green Agro")

	w, body := c.do(http.MethodPost, "/order", gin.H{
		"name":    "Ramesh",
		"contact": "9876543210",
		"shopId":  shopID,
		"items":   []gin.H{{"product": 1, "productName": "Urea", "quantity": "lots", "price": 10}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, body["success"])
	errs := body["errors"].(map[string]interface{})
	assert.Equal(t, "Quantity must be greater than 0", errs["items.0.quantity"])
}

func TestShopRoutesRequireOwnership(t *testing.T) {
	owner := newClient(t)
	owner.signedIn("owner")
	shopID := owner.createShop("Green Agro")

	// a second user on the same server and database
	stranger := &client{t: t, router: owner.router, cookies: map[string]string{}}
	stranger.signedIn("stranger")

	w, _ := stranger.do(http.MethodGet, fmt.Sprintf("/shops/%d/products", shopID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = stranger.do(http.MethodGet, fmt.Sprintf("/order/%d", shopID), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = owner.do(http.MethodGet, "/shops/9999/products", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = owner.do(http.MethodPost, "/addOwner", gin.H{"email": "stranger@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	w, body := stranger.do(http.MethodGet, fmt.Sprintf("/shops/%d/products", shopID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, body["pagination"])

	w, body = stranger.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "owner", body["user"].(map[string]interface{})["role"])
	assert.NotNil(t, body["shop"])
}

func TestProtectedRouteWithoutCookies(t *testing.T) {
	c := newClient(t)

	w, body := c.do(http.MethodGet, "/shop/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestExpiredAccessTokenIsRefreshed(t *testing.T) {
	c := newClient(t)
	c.signedIn("owner")

	w, body := c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	userID := uint(body["user"].(map[string]interface{})["id"].(float64))

	expired := expiredAccessToken(t, userID)
	c.cookies[authcookie.AccessTokenName] = expired

	w, body = c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, body["shop"])
	assert.NotEqual(t, expired, c.cookies[authcookie.AccessTokenName])

	// the browser already dropped the access cookie
	delete(c.cookies, authcookie.AccessTokenName)
	w, _ = c.do(http.MethodGet, "/auth/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, c.cookies[authcookie.AccessTokenName])
}

func TestRefreshWithoutSessionClearsCookies(t *testing.T) {
	c := newClient(t)
	c.signedIn("owner")

	c.cookies[authcookie.AccessTokenName] = expiredAccessToken(t, 1)
	c.cookies[authcookie.RefreshTokenName] = "not-a-session"

	w, body := c.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Session expired", body["message"])

	cleared := clearedCookies(w)
	assert.True(t, cleared[authcookie.AccessTokenName])
	assert.True(t, cleared[authcookie.RefreshTokenName])
}

func TestExpiredAccessWithoutRefreshClearsCookies(t *testing.T) {
	c := newClient(t)
	c.signedIn("owner")

	c.cookies[authcookie.AccessTokenName] = expiredAccessToken(t, 1)
	delete(c.cookies, authcookie.RefreshTokenName)

	w, body := c.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Session expired", body["message"])

	cleared := clearedCookies(w)
	assert.True(t, cleared[authcookie.AccessTokenName])
	assert.True(t, cleared[authcookie.RefreshTokenName])
	assert.Empty(t, c.cookies)
}

func clearedCookies(w *httptest.ResponseRecorder) map[string]bool {
	cleared := map[string]bool{}
	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge < 0 {
			cleared[cookie.Name] = true
		}
	}
	return cleared
}

func TestInvalidAccessTokenIsNotRefreshed(t *testing.T) {
	c := newClient(t)
	c.signedIn("owner")
	c.cookies[authcookie.AccessTokenName] = "garbage"

	w, body := c.do(http.MethodGet, "/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Token is invalid!", body["message"])
	assert.NotEmpty(t, c.cookies[authcookie.RefreshTokenName])
}

func TestExplicitRefreshAndSignout(t *testing.T) {
	c := newClient(t)
	c.signedIn("owner")
	delete(c.cookies, authcookie.AccessTokenName)

	w, _ := c.do(http.MethodPost, "/auth/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, c.cookies[authcookie.AccessTokenName])

	refreshToken := c.cookies[authcookie.RefreshTokenName]
	w, _ = c.do(http.MethodPost, "/auth/signout", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, c.cookies)

	c.cookies[authcookie.RefreshTokenName] = refreshToken
	w, _ = c.do(http.MethodPost, "/auth/refresh", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProductExportCSV(t *testing.T) {
	c := newClient(t)
	c.signedIn("owner")
	shopID := c.createShop("Green Agro")

	w, _ := c.do(http.MethodPost, fmt.Sprintf("/shops/%d/product", shopID), gin.H{
		"title": "Urea", "description": "d", "costPrice": 1, "sellingPrice": 2, "expiryDate": "2027-03-01", "quantity": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, _ = c.do(http.MethodGet, fmt.Sprintf("/shops/%d/products/export/csv", shopID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "products.csv")
	assert.Contains(t, w.Body.String(), "Urea,uncategorized")
}
