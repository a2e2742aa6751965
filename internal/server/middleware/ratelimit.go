package middleware

import (
	"math"
	"net/http"
	"strconv"

	"golang.org/x/time/rate"
)

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	// RequestsPerSecond is the refill rate of the shared bucket.
	RequestsPerSecond float64
	// Burst is the bucket size.
	Burst int
	// Enabled controls whether rate limiting is active.
	Enabled bool
	// Exempt paths bypass the bucket. Liveness and readiness probes are
	// exempt by default so throttled dashboards cannot fail them.
	Exempt []string
}

var defaultExempt = []string{"/health", "/ready"}

// RateLimit limits all requests through one token bucket. Rejected requests
// get 429 with a Retry-After hint in whole seconds.
func RateLimit(config *RateLimitConfig) Middleware {
	if !config.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	exempt := config.Exempt
	if exempt == nil {
		exempt = defaultExempt
	}
	skip := make(map[string]bool, len(exempt))
	for _, p := range exempt {
		skip[p] = true
	}

	limiter := rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst)
	retryAfter := "1"
	if config.RequestsPerSecond > 0 && config.RequestsPerSecond < 1 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / config.RequestsPerSecond)))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !skip[r.URL.Path] && !limiter.Allow() {
				w.Header().Set("Retry-After", retryAfter)
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
