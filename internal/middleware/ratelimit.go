// Package middleware provides HTTP middleware for the catalog site.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/readstack/catalog/pkg/logger"
)

// RateLimiter throttles requests per key, typically the client address.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewRateLimiter allows perMinute events per key with the given burst.
func NewRateLimiter(perMinute, burst int, log *logger.Logger) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	if burst < 1 {
		burst = perMinute
	}
	if log == nil {
		log = logger.NewDefault("ratelimit")
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		log:      log,
	}
}

// Allow reports whether the key may proceed.
func (rl *RateLimiter) Allow(key string) bool {
	allowed := rl.limiter(key).Allow()
	if !allowed {
		rl.log.WithField("key", key).Warn("rate limit exceeded")
	}
	return allowed
}

// Handler rejects over-limit requests with 429, keyed by remote address.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(r.RemoteAddr) {
			http.Error(w, "429 Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}
	return limiter
}

// StartCleanup periodically drops the limiter table so idle keys do not
// accumulate forever. Stop via the returned function.
func (rl *RateLimiter) StartCleanup(interval time.Duration) func() {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				rl.mu.Lock()
				if len(rl.limiters) > 10000 {
					rl.limiters = make(map[string]*rate.Limiter)
				}
				rl.mu.Unlock()
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
