package middleware

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yovohub/hub/internal/handlers"
	"github.com/yovohub/hub/internal/logging"
)

// KeyFunc returns the bucket a request counts against. An empty key skips limiting.
type KeyFunc func(r *http.Request) string

// RateLimiter is a fixed-window request counter stored in Redis.
type RateLimiter struct {
	redis      *redis.Client
	limit      int64
	window     time.Duration
	prefix     string
	keyFunc    KeyFunc
	failClosed bool
}

// NewRateLimiter creates a limiter allowing limit requests per window for each key.
// With failClosed set, Redis errors reject the request with 503 instead of letting it through.
func NewRateLimiter(redisClient *redis.Client, limit int64, window time.Duration, prefix string, keyFunc KeyFunc, failClosed bool) *RateLimiter {
	if keyFunc == nil {
		keyFunc = IPKey
	}
	return &RateLimiter{
		redis:      redisClient,
		limit:      limit,
		window:     window,
		prefix:     prefix,
		keyFunc:    keyFunc,
		failClosed: failClosed,
	}
}

// IPKey buckets requests by client address.
func IPKey(r *http.Request) string {
	return "ip:" + GetClientIP(r)
}

// UserKey buckets requests by authenticated user, falling back to the client address.
func UserKey(r *http.Request) string {
	if user := handlers.GetUserFromContext(r.Context()); user != nil {
		return "user:" + user.ID.String()
	}
	return IPKey(r)
}

func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := rl.keyFunc(r)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		count, ttl, err := rl.hit(r, rl.prefix+key)
		if err != nil {
			logging.Error("Rate limiter unavailable", logging.Fields{
				"error":  err.Error(),
				"prefix": rl.prefix,
			})
			if rl.failClosed {
				writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again later.")
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.limit - count
		if remaining < 0 {
			remaining = 0
		}
		resetAt := time.Now().Add(ttl)
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", resetAt.Unix()))

		if count > rl.limit {
			retryAfter := int64(ttl.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			logging.Warn("Rate limit exceeded", logging.Fields{
				"prefix": rl.prefix,
				"key":    key,
				"path":   r.URL.Path,
			})
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// hit increments the counter for key and returns the new count and time left in the window.
func (rl *RateLimiter) hit(r *http.Request, key string) (int64, time.Duration, error) {
	ctx := r.Context()
	count, err := rl.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("incrementing %s: %w", key, err)
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
			return 0, 0, fmt.Errorf("setting expiry on %s: %w", key, err)
		}
		return count, rl.window, nil
	}

	ttl, err := rl.redis.TTL(ctx, key).Result()
	if err != nil {
		return 0, 0, fmt.Errorf("reading ttl of %s: %w", key, err)
	}
	if ttl < 0 {
		// Key lost its expiry; start a fresh window.
		if err := rl.redis.Expire(ctx, key, rl.window).Err(); err != nil {
			return 0, 0, fmt.Errorf("setting expiry on %s: %w", key, err)
		}
		ttl = rl.window
	}
	return count, ttl, nil
}

// GetClientIP returns the originating client address, preferring proxy headers.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
