package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	defaultRequestsPerSecond = 10.0
	defaultBurst             = 20

	// Limiters idle longer than this are evicted by the cleanup loop.
	limiterTTL = 15 * time.Minute
)

// clientLimiter pairs a token bucket with its last activity time
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter manages per-IP token buckets with idle eviction
type IPRateLimiter struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	rate    rate.Limit
	burst   int
}

// NewIPRateLimiter creates a new IP-based rate limiter
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		clients: make(map[string]*clientLimiter),
		rate:    r,
		burst:   b,
	}
}

// Allow reports whether a request from the given IP may proceed
func (i *IPRateLimiter) Allow(ip string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	client, ok := i.clients[ip]
	if !ok {
		client = &clientLimiter{limiter: rate.NewLimiter(i.rate, i.burst)}
		i.clients[ip] = client
	}
	client.lastSeen = time.Now()

	return client.limiter.Allow()
}

// evictIdle removes buckets that have not been used recently
func (i *IPRateLimiter) evictIdle(ttl time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	for ip, client := range i.clients {
		if client.lastSeen.Before(cutoff) {
			delete(i.clients, ip)
		}
	}
}

// RateLimiter returns per-IP rate limiting middleware. Zero values fall
// back to the package defaults.
func RateLimiter(requestsPerSecond float64, burst int, logger *slog.Logger) echo.MiddlewareFunc {
	if requestsPerSecond <= 0 {
		requestsPerSecond = defaultRequestsPerSecond
	}
	if burst <= 0 {
		burst = defaultBurst
	}

	limiter := NewIPRateLimiter(rate.Limit(requestsPerSecond), burst)

	go func() {
		ticker := time.NewTicker(limiterTTL)
		defer ticker.Stop()
		for range ticker.C {
			limiter.evictIdle(limiterTTL)
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if !limiter.Allow(ip) {
				if logger != nil {
					logger.Warn("rate limit exceeded",
						slog.String("ip", ip),
						slog.String("path", c.Path()))
				}

				c.Response().Header().Set("Retry-After", "60")
				return echo.NewHTTPError(429, map[string]string{
					"error":       "rate limit exceeded",
					"code":        "RATE_LIMITED",
					"retry_after": "60",
				})
			}

			return next(c)
		}
	}
}
