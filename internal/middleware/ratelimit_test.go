package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/trade-journal/internal/middleware"
)

func newLimitedRouter(perMinute, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if c.GetHeader("X-User") == "2" {
			c.Set(middleware.ContextKeyUserID, uint(2))
		} else {
			c.Set(middleware.ContextKeyUserID, uint(1))
		}
		c.Next()
	})
	r.Use(middleware.RateLimitMiddleware(perMinute, burst))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func get(r *gin.Engine, user string) int {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-User", user)
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRateLimitPerUser(t *testing.T) {
	r := newLimitedRouter(1, 2)

	assert.Equal(t, http.StatusOK, get(r, "1"))
	assert.Equal(t, http.StatusOK, get(r, "1"))
	assert.Equal(t, http.StatusTooManyRequests, get(r, "1"))

	assert.Equal(t, http.StatusOK, get(r, "2"), "other users have their own bucket")
}

func TestRateLimitDisabled(t *testing.T) {
	r := newLimitedRouter(0, 1)
	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusOK, get(r, "1"))
	}
}

func TestRateLimiterEvictsIdleUsers(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1, 50*time.Millisecond)

	assert.True(t, limiter.Allow(1))
	assert.False(t, limiter.Allow(1))
	assert.True(t, limiter.Allow(2))
	assert.Equal(t, 2, limiter.Tracked())

	time.Sleep(120 * time.Millisecond)

	assert.Equal(t, 0, limiter.Tracked())
	assert.True(t, limiter.Allow(1), "an evicted user starts with a full bucket")
	assert.Equal(t, 1, limiter.Tracked())
}

func TestRateLimiterUseKeepsBucket(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, 1, 80*time.Millisecond)

	assert.True(t, limiter.Allow(1))
	for i := 0; i < 3; i++ {
		time.Sleep(40 * time.Millisecond)
		assert.False(t, limiter.Allow(1), "active users keep their exhausted bucket")
	}
}
