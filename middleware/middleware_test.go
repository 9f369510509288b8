package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gautam-ch/KrashiDukan/apperr"
	"github.com/gautam-ch/KrashiDukan/limiter"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type errorBody struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func serve(t *testing.T, router *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, errorBody) {
	t.Helper()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body errorBody
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestErrorHandlerRendersAppErrors(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), ErrorHandler())
	router.GET("/invalid", func(c *gin.Context) {
		_ = c.Error(apperr.Validation("Invalid order items", apperr.Fields{"items.0.quantity": "Quantity must be greater than 0"}))
	})
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("connection refused"))
	})

	w, body := serve(t, router, httptest.NewRequest(http.MethodGet, "/invalid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, body.Success)
	assert.Equal(t, "Invalid order items", body.Message)
	assert.Equal(t, "Quantity must be greater than 0", body.Errors["items.0.quantity"])
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w, body = serve(t, router, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error!", body.Message)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCheckLoginMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(ErrorHandler())
	router.GET("/anonymous", CheckLoginMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/expired", func(c *gin.Context) {
		c.Set(authErrorKey, apperr.Unauthorized("Session expired"))
	}, CheckLoginMiddleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/user", func(c *gin.Context) {
		c.Set(UserIDKey, uint(7))
	}, CheckLoginMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": UserID(c)})
	})

	w, body := serve(t, router, httptest.NewRequest(http.MethodGet, "/anonymous", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Not authenticated!", body.Message)

	w, body = serve(t, router, httptest.NewRequest(http.MethodGet, "/expired", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Session expired", body.Message)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/user", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userId": 7}`, w.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := limiter.NewManager(rdb, limiter.NewStrategy("fixed"))

	router := gin.New()
	router.Use(ErrorHandler())
	router.POST("/auth/signin", RateLimitMiddleware(manager, "signin", 2, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/signin", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w, body := serve(t, router, httptest.NewRequest(http.MethodPost, "/auth/signin", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.False(t, body.Success)

	mr.FastForward(time.Minute)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/signin", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	manager := limiter.NewManager(rdb, limiter.NewStrategy("fixed"))
	mr.Close()

	router := gin.New()
	router.POST("/auth/signup", RateLimitMiddleware(manager, "signup", 1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/signup", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}
