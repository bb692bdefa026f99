package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"chovha/internal/service"
)

const rateLimitMessage = "Too many requests, please try again later."

// KeyFunc picks the bucket a request is counted against. An empty key skips
// limiting for that request.
type KeyFunc func(c *gin.Context) string

type visitor struct {
	limiter     *rate.Limiter
	windowStart time.Time
}

// RateLimiter allows a fixed number of requests per window for each key.
// A key's window starts with its first request and its quota is restored
// only once the window has fully elapsed.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	requests int
	window   time.Duration
	now      func() time.Time
}

// NewRateLimiter creates a limiter allowing requests per window for every key.
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	if requests < 1 {
		requests = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		requests: requests,
		window:   window,
		now:      time.Now,
	}
}

// Allow reports whether one more request for key fits in its current window.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[key]
	if !ok || rl.expired(v, now) {
		// A zero limit never refills, so the burst is the whole quota.
		v = &visitor{limiter: rate.NewLimiter(0, rl.requests), windowStart: now}
		rl.visitors[key] = v
	}

	return v.limiter.AllowN(now, 1)
}

func (rl *RateLimiter) expired(v *visitor, now time.Time) bool {
	return !now.Before(v.windowStart.Add(rl.window))
}

// Cleanup drops keys whose window has elapsed.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for key, v := range rl.visitors {
		if rl.expired(v, now) {
			delete(rl.visitors, key)
			removed++
		}
	}
	return removed
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

// Middleware rejects requests over the limit with 429.
func (rl *RateLimiter) Middleware(key KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		k := key(c)
		if k != "" && !rl.Allow(k) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errorBody{Error: rateLimitMessage})
			return
		}
		c.Next()
	}
}

// ByClientIP keys requests by client address.
func ByClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// ByUserID keys requests by the authenticated caller.
func ByUserID(c *gin.Context) string {
	return UserID(c)
}

// ByPhone keys requests by the normalized phone in the JSON body and leaves
// the body readable for the handler. Requests without a usable phone are
// not limited here; the handler rejects them.
func ByPhone(c *gin.Context) string {
	if c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	var payload struct {
		Phone string `json:"phone"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	phone, err := service.NormalizePhone(payload.Phone)
	if err != nil {
		return ""
	}
	return "phone:" + phone
}
