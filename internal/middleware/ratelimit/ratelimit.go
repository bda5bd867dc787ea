package ratelimit

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/httprate"

	"hostelfees/internal/log"
)

// Config holds rate limiter configuration
type Config struct {
	RequestsPerMinute int
	Window            time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 120,
		Window:            time.Minute,
	}
}

// Limiter throttles requests per client address. Every report request
// reaches the spreadsheet API, so the limit protects the upstream quota.
type Limiter struct {
	config Config
	hits   atomic.Int64
}

// Metrics for monitoring rate limit performance
type Metrics struct {
	TotalHits int64
}

// NewLimiter creates a new rate limiter
func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.Window <= 0 {
		config.Window = time.Minute
	}
	return &Limiter{config: config}
}

// GetMetrics returns how many requests were rejected so far.
func (rl *Limiter) GetMetrics() Metrics {
	return Metrics{TotalHits: rl.hits.Load()}
}

// Middleware creates HTTP middleware for rate limiting. extractIP keys the
// counters; when nil the peer address is used. onLimit, when set, writes
// the rejection instead of the default JSON body.
func (rl *Limiter) Middleware(extractIP func(*http.Request) string, onLimit http.HandlerFunc) func(http.Handler) http.Handler {
	keyFunc := httprate.KeyByIP
	if extractIP != nil {
		keyFunc = func(r *http.Request) (string, error) {
			return extractIP(r), nil
		}
	}
	if onLimit == nil {
		onLimit = writeLimited
	}

	return httprate.Limit(rl.config.RequestsPerMinute, rl.config.Window,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			rl.hits.Add(1)
			log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(),
				"Rate limit exceeded", log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			onLimit(w, r)
		}),
	)
}

func writeLimited(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusTooManyRequests)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "Rate limit exceeded. Please try again later.",
	})
}
