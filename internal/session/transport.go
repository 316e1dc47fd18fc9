package session

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Mode is the delivery channel for a minted token. It is an explicit caller
// choice, never inferred from request shape.
type Mode int

const (
	// ModeCookie sets the token as an HttpOnly cookie.
	ModeCookie Mode = iota
	// ModeBearer returns the token in the JSON body; the client replays it as
	// an Authorization: Bearer header.
	ModeBearer
)

const (
	SessionCookie = "token"
	DemoCookie    = "demo_token"

	SessionMaxAge = 7 * 24 * 60 * 60
	DemoMaxAge    = 60 * 60
)

// Transport writes and clears the session cookies. In production cookies are
// Secure with SameSite=None (the PWA runs on a different origin); elsewhere
// SameSite=Lax.
type Transport struct {
	prod bool
}

func NewTransport(env string) Transport {
	return Transport{prod: env == "prod"}
}

func (t Transport) SetSession(ctx *gin.Context, token string) {
	t.set(ctx, SessionCookie, token, SessionMaxAge)
}

func (t Transport) SetDemo(ctx *gin.Context, token string) {
	t.set(ctx, DemoCookie, token, DemoMaxAge)
}

func (t Transport) ClearSession(ctx *gin.Context) {
	t.set(ctx, SessionCookie, "", -1)
}

func (t Transport) ClearDemo(ctx *gin.Context) {
	t.set(ctx, DemoCookie, "", -1)
}

func (t Transport) set(ctx *gin.Context, name, value string, maxAge int) {
	sameSite := http.SameSiteLaxMode

	if t.prod {
		sameSite = http.SameSiteNoneMode
	}

	ctx.SetSameSite(sameSite)

	ctx.SetCookie(
		name,
		value,
		maxAge,
		"/",
		"",
		t.prod, // Secure
		true,   // HttpOnly
	)
}
