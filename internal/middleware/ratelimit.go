package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RateLimiter is a per-key sliding window limiter, kept in memory. It
// keys on the caller's API key when present, falling back to the
// remote address — matching the teacher gateway's rate limiter, with
// the request-classification choice this service needs: recomlite
// callers are usually a handful of backend services, not end users, so
// one process-local window per key is enough.
type RateLimiter struct {
	logger  zerolog.Logger
	enabled bool
	rpm     int

	mu      sync.Mutex
	windows map[string]*slidingWindow
}

type slidingWindow struct {
	tokens    []time.Time
	lastClean time.Time
}

// NewRateLimiter builds a RateLimiter. Setting enabled false makes the
// returned middleware a pass-through.
func NewRateLimiter(logger zerolog.Logger, enabled bool, rpm int) *RateLimiter {
	return &RateLimiter{
		logger:  logger,
		enabled: enabled,
		rpm:     rpm,
		windows: make(map[string]*slidingWindow),
	}
}

// Handler returns the rate-limiting middleware.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.enabled {
			next.ServeHTTP(w, r)
			return
		}

		key := APIKeyFromContext(r.Context())
		if key == "" {
			key = r.RemoteAddr
		}

		allowed, remaining, resetAt := rl.allow(key)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.rpm))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

		if !allowed {
			retryAfter := int(time.Until(resetAt).Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			http.Error(w, fmt.Sprintf(`{"error":"rate_limit_exceeded","retry_after":%d}`, retryAfter), http.StatusTooManyRequests)
			rl.logger.Warn().Str("key", maskKey(key)).Int("limit", rl.rpm).Msg("rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) allow(key string) (bool, int, time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-time.Minute)
	resetAt := now.Add(time.Minute)

	sw, ok := rl.windows[key]
	if !ok {
		sw = &slidingWindow{tokens: make([]time.Time, 0, rl.rpm), lastClean: now}
		rl.windows[key] = sw
	}

	if now.Sub(sw.lastClean) > 10*time.Second {
		valid := sw.tokens[:0]
		for _, t := range sw.tokens {
			if t.After(windowStart) {
				valid = append(valid, t)
			}
		}
		sw.tokens = valid
		sw.lastClean = now
	}

	count := 0
	for _, t := range sw.tokens {
		if t.After(windowStart) {
			count++
		}
	}

	remaining := rl.rpm - count
	if remaining <= 0 {
		if len(sw.tokens) > 0 {
			resetAt = sw.tokens[0].Add(time.Minute)
		}
		return false, 0, resetAt
	}

	sw.tokens = append(sw.tokens, now)
	return true, remaining - 1, resetAt
}

// Cleanup drops windows that have gone idle. Call it periodically from
// a background goroutine to bound the map's size.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-2 * time.Minute)
	for key, sw := range rl.windows {
		if len(sw.tokens) == 0 || sw.tokens[len(sw.tokens)-1].Before(cutoff) {
			delete(rl.windows, key)
		}
	}
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:8] + "..."
}
