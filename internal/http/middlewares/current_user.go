package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mlegrand/stashhub/internal/auth"
	"github.com/mlegrand/stashhub/internal/domain/user"
	"github.com/mlegrand/stashhub/internal/session"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserResolver interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

// CurrentUser resolves the authenticated user for a request. Token lookup
// order: demo cookie, then session cookie, then Authorization bearer — an
// active demo session always shadows the real one.
type CurrentUser struct {
	jwt   TokenVerifier
	users UserResolver
}

func NewCurrentUser(jwt TokenVerifier, users UserResolver) *CurrentUser {
	return &CurrentUser{jwt: jwt, users: users}
}

func tokenFromRequest(c *gin.Context) string {
	if v, err := c.Cookie(session.DemoCookie); err == nil && v != "" {
		return v
	}

	if v, err := c.Cookie(session.SessionCookie); err == nil && v != "" {
		return v
	}

	h := c.GetHeader("Authorization")

	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}

	return ""
}

// Require aborts with 401 unless the request carries a verifiable token whose
// subject still exists. Invalid, expired and orphaned tokens all get the same
// response.
func (m *CurrentUser) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)

		if raw == "" {
			abortUnauthenticated(c)
			return
		}

		claims, err := m.jwt.Verify(raw)

		if err != nil {
			abortUnauthenticated(c)
			return
		}

		// Claims are a snapshot; the user record is the current truth.
		u, err := m.users.GetByID(c.Request.Context(), claims.Subject)

		if err != nil {
			abortUnauthenticated(c)
			return
		}

		c.Set(ctxUserKey, u)

		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": "Not authenticated.",
		},
	})
}

func UserFromContext(c *gin.Context) (user.User, bool) {
	v, ok := c.Get(ctxUserKey)

	if !ok {
		return user.User{}, false
	}

	u, ok := v.(user.User)

	return u, ok
}
