package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"golang.org/x/time/rate"
)

// clientLimiter tracks one caller's token bucket and when it was last used
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter applies a per-caller token bucket, keyed by client code when
// authenticated and by remote IP otherwise.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rate    rate.Limit
	burst   int
}

// NewRateLimiter creates a rate limiter from configuration
func NewRateLimiter(cfg *viper.Viper) *RateLimiter {
	perSecond := cfg.GetFloat64("ratelimit.rate")
	if perSecond <= 0 {
		perSecond = 20
	}
	burst := cfg.GetInt("ratelimit.burst")
	if burst <= 0 {
		burst = 40
	}

	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rate:    rate.Limit(perSecond),
		burst:   burst,
	}
	go rl.cleanup()
	return rl
}

func (rl *RateLimiter) allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.clients[key]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// cleanup drops buckets that have been idle long enough to refill fully
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-10 * time.Minute)
		rl.mu.Lock()
		for key, entry := range rl.clients {
			if entry.lastSeen.Before(cutoff) {
				delete(rl.clients, key)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimit returns a rate limiting middleware. Disabled limiters pass all
// requests through.
func RateLimit(cfg *viper.Viper) echo.MiddlewareFunc {
	if !cfg.GetBool("ratelimit.enabled") {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	rl := NewRateLimiter(cfg)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP()
			if clientCode, ok := c.Get("client_code").(string); ok && clientCode != "" {
				key = clientCode
			}

			if !rl.allow(key) {
				return echo.NewHTTPError(http.StatusTooManyRequests, "Rate limit exceeded")
			}
			return next(c)
		}
	}
}
