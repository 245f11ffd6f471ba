package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/textsimplify/api/internal/apierror"
	"github.com/textsimplify/api/internal/metrics"
	"golang.org/x/time/rate"
)

// RateLimiter manages per-identity token buckets
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(rps int, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

// getLimiter returns a rate limiter for a specific key
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	limiter, exists = rl.limiters[key]
	if exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[key] = limiter

	return limiter
}

// RateLimit middleware limits requests per user or IP
func RateLimit(rl *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Try to get user ID first
		userID, exists := c.Get(AuthContextKey)
		var key string

		if exists {
			key = fmt.Sprintf("user:%s", userID)
		} else {
			// Fall back to IP address
			key = fmt.Sprintf("ip:%s", c.ClientIP())
		}

		limiter := rl.getLimiter(key)
		if !limiter.Allow() {
			metrics.RateLimitRejectionsTotal.Inc()
			apierror.Respond(c, apierror.RateLimited("Too many requests, please try again later"))
			return
		}

		c.Next()
	}
}

// WindowChecker enforces a rolling-window request ceiling per identity
type WindowChecker interface {
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (bool, error)
}

// WindowLimit middleware enforces the per-user daily request quota
func WindowLimit(checker WindowChecker, limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			// No identity in context, skip quota check
			c.Next()
			return
		}

		ok, err := checker.CheckRateLimit(c.Request.Context(), "quota:"+userID, limit, 24*time.Hour)
		if err != nil {
			apierror.Respond(c, apierror.Internal("Failed to check quota"))
			return
		}

		if !ok {
			metrics.RateLimitRejectionsTotal.Inc()
			apierror.Respond(c, apierror.RateLimited("Daily quota exceeded. Please try again later."))
			return
		}

		c.Next()
	}
}
