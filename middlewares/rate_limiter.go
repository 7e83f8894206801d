package middlewares

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter is a sliding-window counter keyed by request identifier: the
// authenticated user when available, the client IP otherwise. State lives in
// process memory, so counts are approximate across multiple instances.
type RateLimiter struct {
	rate      int
	interval  time.Duration
	hits      map[string][]time.Time
	lastSweep time.Time
	mu        sync.Mutex
}

func NewRateLimiter(requests int, intervalSeconds int) *RateLimiter {
	return &RateLimiter{
		rate:     requests,
		interval: time.Duration(intervalSeconds) * time.Second,
		hits:     make(map[string][]time.Time),
	}
}

func identifier(c *gin.Context) string {
	if userID, exists := c.Get("userID"); exists {
		return fmt.Sprintf("user:%v", userID)
	}
	return "ip:" + c.ClientIP()
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := identifier(c)

		rl.mu.Lock()

		now := time.Now()
		cutoff := now.Add(-rl.interval)
		rl.sweep(now, cutoff)
		valid := make([]time.Time, 0, len(rl.hits[key]))
		for _, t := range rl.hits[key] {
			if t.After(cutoff) {
				valid = append(valid, t)
			}
		}

		if len(valid) >= rl.rate {
			rl.hits[key] = valid
			rl.mu.Unlock()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "too many requests, slow down",
			})
			return
		}

		rl.hits[key] = append(valid, now)
		rl.mu.Unlock()
		c.Next()
	}
}

// sweep drops identifiers whose whole window has expired, at most once per
// interval, so the map does not grow with every client the process has ever
// seen. Hits are appended in order, so the newest is last. Caller holds mu.
func (rl *RateLimiter) sweep(now, cutoff time.Time) {
	if now.Sub(rl.lastSweep) < rl.interval {
		return
	}
	for key, hits := range rl.hits {
		if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
			delete(rl.hits, key)
		}
	}
	rl.lastSweep = now
}

// NewStrictRateLimiter guards the magic-link endpoints: 5 requests per
// minute across the process.
func NewStrictRateLimiter() gin.HandlerFunc {
	limiter := rate.NewLimiter(rate.Every(time.Minute/5), 5)
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  false,
				"message": "too many attempts, please wait a moment",
			})
			return
		}
		c.Next()
	}
}
