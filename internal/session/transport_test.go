package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func cookiesFor(t *testing.T, tr Transport, apply func(Transport, *gin.Context)) []*http.Cookie {
	t.Helper()

	w := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(w)
	ctx.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	apply(tr, ctx)

	return w.Result().Cookies()
}

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()

	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}

	t.Fatalf("cookie %q not set (got %v)", name, cookies)

	return nil
}

func TestSetSessionDev(t *testing.T) {
	cookies := cookiesFor(t, NewTransport("dev"), func(tr Transport, ctx *gin.Context) {
		tr.SetSession(ctx, "tok-123")
	})

	c := findCookie(t, cookies, SessionCookie)

	if c.Value != "tok-123" {
		t.Errorf("value = %q", c.Value)
	}
	if c.MaxAge != SessionMaxAge {
		t.Errorf("max-age = %d, want %d", c.MaxAge, SessionMaxAge)
	}
	if !c.HttpOnly {
		t.Errorf("cookie must be HttpOnly")
	}
	if c.Path != "/" {
		t.Errorf("path = %q, want /", c.Path)
	}
	if c.Secure {
		t.Errorf("dev cookie must not be Secure")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("dev SameSite = %v, want Lax", c.SameSite)
	}
}

func TestSetSessionProd(t *testing.T) {
	cookies := cookiesFor(t, NewTransport("prod"), func(tr Transport, ctx *gin.Context) {
		tr.SetSession(ctx, "tok-123")
	})

	c := findCookie(t, cookies, SessionCookie)

	if !c.Secure {
		t.Errorf("prod cookie must be Secure")
	}
	if c.SameSite != http.SameSiteNoneMode {
		t.Errorf("prod SameSite = %v, want None", c.SameSite)
	}
}

func TestDemoCookieLifetime(t *testing.T) {
	cookies := cookiesFor(t, NewTransport("dev"), func(tr Transport, ctx *gin.Context) {
		tr.SetDemo(ctx, "demo-tok")
	})

	c := findCookie(t, cookies, DemoCookie)

	if c.MaxAge != DemoMaxAge {
		t.Errorf("demo max-age = %d, want %d", c.MaxAge, DemoMaxAge)
	}
}

func TestClearSession(t *testing.T) {
	cookies := cookiesFor(t, NewTransport("dev"), func(tr Transport, ctx *gin.Context) {
		tr.ClearSession(ctx)
	})

	c := findCookie(t, cookies, SessionCookie)

	if c.MaxAge >= 0 || c.Value != "" {
		t.Errorf("clear must expire the cookie, got max-age=%d value=%q", c.MaxAge, c.Value)
	}
}

func TestClientKey(t *testing.T) {
	newReq := func(mod func(*http.Request)) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		r.RemoteAddr = "203.0.113.9:51234"
		if mod != nil {
			mod(r)
		}
		return r
	}

	tests := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"sid cookie wins", newReq(func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: "sid", Value: "anon-1"})
			r.Header.Set("X-Forwarded-For", "198.51.100.7")
		}), "sid:anon-1"},
		{"first forwarded hop", newReq(func(r *http.Request) {
			r.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")
		}), "198.51.100.7"},
		{"remote addr", newReq(nil), "203.0.113.9"},
		{"fallback", newReq(func(r *http.Request) {
			r.RemoteAddr = ""
		}), "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClientKey(tc.req); got != tc.want {
				t.Errorf("ClientKey = %q, want %q", got, tc.want)
			}
		})
	}
}
