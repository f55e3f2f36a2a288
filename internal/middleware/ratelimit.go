package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

const authPath = "/login"

// Limiter decides whether one more request for key fits in the budget.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type memoryEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps one token bucket per key in process memory.
type MemoryLimiter struct {
	rpm     int
	mu      sync.Mutex
	clients map[string]*memoryEntry
}

func NewMemoryLimiter(rpm int) *MemoryLimiter {
	return &MemoryLimiter{rpm: rpm, clients: map[string]*memoryEntry{}}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, exists := l.clients[key]
	if !exists {
		entry = &memoryEntry{
			limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(l.rpm)), l.rpm),
		}
		l.clients[key] = entry
	}
	entry.lastSeen = time.Now()
	l.gcLocked()

	return entry.limiter.Allow(), nil
}

func (l *MemoryLimiter) gcLocked() {
	if len(l.clients) < 1000 {
		return
	}

	cutoff := time.Now().Add(-10 * time.Minute)
	for key, entry := range l.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(l.clients, key)
		}
	}
}

// RedisLimiter counts requests in fixed one-minute windows shared by every
// instance pointing at the same Redis.
type RedisLimiter struct {
	client *redis.Client
	prefix string
	rpm    int
	now    func() time.Time
}

func NewRedisLimiter(client *redis.Client, prefix string, rpm int) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, rpm: rpm, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	window := l.now().UTC().Truncate(time.Minute).Unix()
	counterKey := fmt.Sprintf("ratelimit:%s:%s:%d", l.prefix, key, window)

	count, err := l.client.Incr(ctx, counterKey).Result()
	if err != nil {
		return false, fmt.Errorf("incr %s: %w", counterKey, err)
	}
	if count == 1 {
		if err := l.client.Expire(ctx, counterKey, time.Minute).Err(); err != nil {
			return false, fmt.Errorf("expire %s: %w", counterKey, err)
		}
	}

	return count <= int64(l.rpm), nil
}

type RateLimitMiddleware struct {
	general Limiter
	auth    Limiter
}

// NewRateLimitMiddleware applies authRPM to /login and generalRPM to the rest.
// A non-positive budget disables limiting for that class. With a Redis client
// the counters are shared; without one they live in this process.
func NewRateLimitMiddleware(generalRPM int, authRPM int, client *redis.Client) *RateLimitMiddleware {
	build := func(class string, rpm int) Limiter {
		if rpm <= 0 {
			return nil
		}
		if client != nil {
			return NewRedisLimiter(client, class, rpm)
		}
		return NewMemoryLimiter(rpm)
	}

	return &RateLimitMiddleware{
		general: build("general", generalRPM),
		auth:    build("auth", authRPM),
	}
}

func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		target := m.general
		if strings.EqualFold(strings.TrimSuffix(r.URL.Path, "/"), authPath) {
			target = m.auth
		}
		if target == nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := target.Allow(r.Context(), extractClientIP(r))
		if err != nil {
			// Limiter backend trouble should not take the API down with it.
			slog.Warn("rate limiter unavailable, allowing request", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", "60")
			writeAPIError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func extractClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	realIP := strings.TrimSpace(r.Header.Get("X-Real-IP"))
	if realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
