package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func limiterRouter(rl *RateLimiter) *gin.Engine {
	r := gin.New()

	r.POST("/login", rl.Middleware(KeyByClient), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}

func hit(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRateLimiterBlocksAfterLimit(t *testing.T) {
	store := NewMemoryLimiterStore()
	r := limiterRouter(NewRateLimiter(store, 5, time.Minute))

	for i := 0; i < 5; i++ {
		w := hit(r, "192.0.2.1:1000")

		if w.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d", i+1, w.Code)
		}
	}

	w := hit(r, "192.0.2.1:1000")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("6th attempt: status = %d", w.Code)
	}

	if w.Header().Get("Retry-After") == "" {
		t.Error("429 must carry Retry-After")
	}
}

func TestRateLimiterKeysPerClient(t *testing.T) {
	store := NewMemoryLimiterStore()
	r := limiterRouter(NewRateLimiter(store, 2, time.Minute))

	hit(r, "192.0.2.1:1000")
	hit(r, "192.0.2.1:1000")

	blocked := hit(r, "192.0.2.1:1000")

	if blocked.Code != http.StatusTooManyRequests {
		t.Fatalf("same client: status = %d", blocked.Code)
	}

	other := hit(r, "192.0.2.2:1000")

	if other.Code != http.StatusOK {
		t.Fatalf("other client: status = %d", other.Code)
	}
}

func TestRateLimiterWindowRollsOver(t *testing.T) {
	now := time.Now()
	store := NewMemoryLimiterStore()
	store.now = func() time.Time { return now }

	r := limiterRouter(NewRateLimiter(store, 1, time.Minute))

	hit(r, "192.0.2.1:1000")

	if w := hit(r, "192.0.2.1:1000"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("within window: status = %d", w.Code)
	}

	now = now.Add(61 * time.Second)

	if w := hit(r, "192.0.2.1:1000"); w.Code != http.StatusOK {
		t.Fatalf("after window: status = %d", w.Code)
	}
}

type brokenStore struct{}

func (brokenStore) Incr(context.Context, string, time.Duration) (int, time.Duration, error) {
	return 0, 0, errors.New("store down")
}

func TestRateLimiterFailsOpen(t *testing.T) {
	r := limiterRouter(NewRateLimiter(brokenStore{}, 1, time.Minute))

	for i := 0; i < 3; i++ {
		if w := hit(r, "192.0.2.1:1000"); w.Code != http.StatusOK {
			t.Fatalf("attempt %d: status = %d", i+1, w.Code)
		}
	}
}
