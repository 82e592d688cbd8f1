package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/trade-journal/pkg/response"
	"golang.org/x/time/rate"
)

// LimiterIdleTTL is how long an unused per-user bucket is kept
const LimiterIdleTTL = 30 * time.Minute

// RateLimiter holds one token bucket per authenticated user. Buckets of users
// that stay idle for longer than the idle TTL are evicted.
type RateLimiter struct {
	mu      sync.Mutex
	buckets *cache.Cache
	every   rate.Limit
	burst   int
}

// NewRateLimiter allows each user perMinute requests with the given burst.
// perMinute <= 0 disables limiting.
func NewRateLimiter(perMinute, burst int, idle time.Duration) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(perMinute))
	}
	return &RateLimiter{
		buckets: cache.New(idle, idle),
		every:   limit,
		burst:   burst,
	}
}

// Allow reports whether userID may make another request now
func (l *RateLimiter) Allow(userID uint) bool {
	key := strconv.FormatUint(uint64(userID), 10)

	l.mu.Lock()
	var bucket *rate.Limiter
	if v, ok := l.buckets.Get(key); ok {
		bucket = v.(*rate.Limiter)
	} else {
		bucket = rate.NewLimiter(l.every, l.burst)
	}
	// refresh the idle deadline on every use
	l.buckets.Set(key, bucket, cache.DefaultExpiration)
	l.mu.Unlock()

	return bucket.Allow()
}

// Tracked returns the number of users holding a bucket
func (l *RateLimiter) Tracked() int {
	l.buckets.DeleteExpired()
	return l.buckets.ItemCount()
}

// Middleware rejects requests over the limit with 429. It must run after AuthMiddleware.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		if !l.Allow(userID) {
			LogError("Rate limit exceeded: user=%d path=%s", userID, c.Request.URL.Path)
			response.Error(c, http.StatusTooManyRequests, -1429, "too many import requests, try again later")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware allows each user perMinute requests with the given burst.
// It must run after AuthMiddleware.
func RateLimitMiddleware(perMinute, burst int) gin.HandlerFunc {
	return NewRateLimiter(perMinute, burst, LimiterIdleTTL).Middleware()
}
