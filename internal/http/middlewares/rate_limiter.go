package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mlegrand/stashhub/internal/session"
)

// LimiterStore counts an attempt for key within the current fixed window and
// reports the running total plus how long until the window rolls over.
type LimiterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, retryAfter time.Duration, err error)
}

type RateLimiter struct {
	store  LimiterStore
	limit  int
	window time.Duration
}

func NewRateLimiter(store LimiterStore, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		store:  store,
		limit:  limit,
		window: window,
	}
}

// Middleware enforces the limit for a derived key and aborts with 429 before
// any credential check runs.
func (rl *RateLimiter) Middleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			key = session.ClientKey(c.Request)
		}

		count, retryAfter, err := rl.store.Incr(c.Request.Context(), key, rl.window)

		if err != nil {
			// A dead store falls through to the handler.
			slog.Default().Error("rate limiter store failure", "err", err)
			c.Next()
			return
		}

		if count > rl.limit {
			seconds := int(retryAfter.Seconds())

			if seconds < 0 {
				seconds = 0
			}

			c.Header("Retry-After", strconv.Itoa(seconds))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": "Too many login attempts. Please try again shortly.",
				},
			})

			return
		}

		c.Next()
	}
}

// KeyByClient derives the limiter key the same way the token vault does.
func KeyByClient(c *gin.Context) string {
	return session.ClientKey(c.Request)
}

type bucket struct {
	count     int
	windowEnd time.Time
}

// MemoryLimiterStore is a mutex-guarded map with lazy window expiry.
// Single-process only.
type MemoryLimiterStore struct {
	mu      sync.Mutex
	clients map[string]*bucket
	now     func() time.Time
}

func NewMemoryLimiterStore() *MemoryLimiterStore {
	return &MemoryLimiterStore{
		clients: make(map[string]*bucket),
		now:     time.Now,
	}
}

func (s *MemoryLimiterStore) Incr(_ context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]

	if !ok || now.After(b.windowEnd) {
		s.clients[key] = &bucket{count: 1, windowEnd: now.Add(window)}
		return 1, 0, nil
	}

	b.count++

	return b.count, b.windowEnd.Sub(now), nil
}
