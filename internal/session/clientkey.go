package session

import (
	"net"
	"net/http"
	"strings"
)

// ClientKey identifies the caller for the vault and the login rate limiter.
// Preference order: an anonymous sid cookie when the frontend sets one (so
// clients behind a shared NAT stop colliding), else the first forwarded-for
// hop, else the socket address, else a fixed fallback.
func ClientKey(r *http.Request) string {
	if c, err := r.Cookie("sid"); err == nil && c.Value != "" {
		return "sid:" + c.Value
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")

		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}

	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}

	return "default"
}
