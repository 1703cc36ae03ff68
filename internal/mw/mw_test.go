package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(0.001), 2))
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ping").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, http.MethodGet, "/ping").Code)
}

func TestIPRateLimiter_ReusesLimiterPerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1, time.Minute)

	a := l.GetLimiter("127.0.0.1")
	assert.Same(t, a, l.GetLimiter("127.0.0.1"))
	assert.NotSame(t, a, l.GetLimiter("127.0.0.2"))
}

func TestCacheAndInvalidate(t *testing.T) {
	store := cache.New(time.Minute, time.Minute)
	calls := 0

	r := gin.New()
	r.GET("/items", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.POST("/items", Invalidate(store), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	r.POST("/fail", Invalidate(store), func(c *gin.Context) {
		c.Status(http.StatusBadRequest)
	})

	first := serve(r, http.MethodGet, "/items")
	assert.JSONEq(t, `{"calls":1}`, first.Body.String())

	second := serve(r, http.MethodGet, "/items")
	assert.JSONEq(t, `{"calls":1}`, second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	serve(r, http.MethodPost, "/fail")
	assert.JSONEq(t, `{"calls":1}`, serve(r, http.MethodGet, "/items").Body.String())

	serve(r, http.MethodPost, "/items")
	assert.JSONEq(t, `{"calls":2}`, serve(r, http.MethodGet, "/items").Body.String())
}
