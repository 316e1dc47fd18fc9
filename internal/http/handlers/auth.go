package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mlegrand/stashhub/internal/auth"
	"github.com/mlegrand/stashhub/internal/config"
	"github.com/mlegrand/stashhub/internal/domain/user"
	"github.com/mlegrand/stashhub/internal/http/middlewares"
	"github.com/mlegrand/stashhub/internal/observability"
	"github.com/mlegrand/stashhub/internal/repo/postgres"
	"github.com/mlegrand/stashhub/internal/security"
	"github.com/mlegrand/stashhub/internal/session"
)

// UserStore is the slice of the users repo the auth endpoints need.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, n user.NewUser) (user.User, error)
}

// GoogleVerifier is implemented by auth.GoogleBridge; tests fake it.
type GoogleVerifier interface {
	VerifyIDToken(ctx context.Context, raw string) (auth.GoogleIdentity, error)
	ExchangeCode(ctx context.Context, code string) (auth.GoogleIdentity, error)
}

type AuthHandler struct {
	users   UserStore
	jwt     *auth.Manager
	google  GoogleVerifier
	vault   session.Vault
	cookies session.Transport
	metrics *observability.Prom
}

func NewAuthHandler(users UserStore, jwt *auth.Manager, google GoogleVerifier, vault session.Vault, cookies session.Transport, metrics *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:   users,
		jwt:     jwt,
		google:  google,
		vault:   vault,
		cookies: cookies,
		metrics: metrics,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Demo     bool   `json:"demo"`
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginRequest struct {
	Token string `json:"token"`
	IsPWA bool   `json:"isPWA"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)

	// Google accounts have no usable password; they fail like unknown users.
	if err != nil || foundUser.Provider == user.ProviderGoogle {
		h.metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	if err := security.CheckPassword(foundUser.PasswordHash, req.Password); err != nil {
		h.metrics.LoginAttempts.WithLabelValues("invalid_credentials").Inc()
		RespondUnauthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	class := auth.ClassSession
	result := "ok"

	if req.Demo {
		class = auth.ClassDemo
		result = "demo"
	}

	token, err := h.jwt.Issue(foundUser.ID, foundUser.Email, foundUser.Name, foundUser.Role, class)

	if err != nil {
		h.metrics.LoginAttempts.WithLabelValues("error").Inc()
		RespondInternal(ctx, "Could not create session")
		return
	}

	if req.Demo {
		h.cookies.SetDemo(ctx, token)
	} else {
		h.cookies.SetSession(ctx, token)
	}

	h.metrics.LoginAttempts.WithLabelValues(result).Inc()

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Logged in.",
		"user":    foundUser.Safe(),
		"demo":    req.Demo,
	})
}

func (h *AuthHandler) SignUp(ctx *gin.Context) {
	var req SignUpRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := security.ValidateStrength(req.Password); err != nil {
		RespondBadRequest(ctx, "weak_password", "Password must be at least 8 characters with an upper, a lower, a digit and a symbol.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not create user")
		return
	}

	u, err := h.users.Create(cctx, user.NewUser{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Provider:     user.ProviderLocal,
		Role:         user.RoleUser,
	})

	if err != nil {
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			RespondBadRequest(ctx, "email_taken", "Email is already in use.")
			return
		}

		RespondInternal(ctx, "Could not create user")
		return
	}

	token, err := h.jwt.Issue(u.ID, u.Email, u.Name, u.Role, auth.ClassSession)

	if err != nil {
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.cookies.SetSession(ctx, token)

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Account created.",
		"user":    u.Safe(),
	})
}

func (h *AuthHandler) GoogleLogin(ctx *gin.Context) {
	var req GoogleLoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	flow := "browser"
	mode := session.ModeCookie

	if req.IsPWA {
		flow = "pwa"
		mode = session.ModeBearer
	}

	if req.Token == "" {
		RespondBadRequest(ctx, "missing_token", "Missing Google token.")
		return
	}

	var (
		identity auth.GoogleIdentity
		err      error
	)

	if req.IsPWA {
		identity, err = h.google.ExchangeCode(ctx.Request.Context(), req.Token)
	} else {
		identity, err = h.google.VerifyIDToken(ctx.Request.Context(), req.Token)
	}

	if err != nil {
		h.metrics.GoogleLogins.WithLabelValues(flow, "rejected").Inc()

		switch {
		case errors.Is(err, auth.ErrMissingGoogleToken):
			RespondBadRequest(ctx, "missing_token", "Missing Google token.")
		case errors.Is(err, auth.ErrInvalidGoogleToken):
			RespondBadRequest(ctx, "invalid_google_token", "Invalid Google token.")
		default:
			slog.Default().ErrorContext(ctx.Request.Context(), "google exchange failed", "err", err)
			RespondError(ctx, http.StatusInternalServerError, "provider_unavailable", "Google sign-in is unavailable. Try again later.", nil)
		}

		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.GetByEmail(cctx, identity.Email)

	if errors.Is(err, postgres.ErrUserNotFound) {
		u, err = h.users.Create(cctx, user.NewUser{
			Name:     identity.Name,
			Email:    identity.Email,
			Picture:  identity.Picture,
			Provider: user.ProviderGoogle,
			Role:     user.RoleUser,
		})

		// Two first sign-ins can race; the loser reuses the winner's row.
		if errors.Is(err, postgres.ErrEmailAlreadyUsed) {
			u, err = h.users.GetByEmail(cctx, identity.Email)
		}
	}

	if err != nil {
		h.metrics.GoogleLogins.WithLabelValues(flow, "error").Inc()
		RespondInternal(ctx, "Could not sign in with Google")
		return
	}

	class := auth.ClassSession

	if req.IsPWA {
		class = auth.ClassPWA
	}

	token, err := h.jwt.Issue(u.ID, u.Email, u.Name, u.Role, class)

	if err != nil {
		h.metrics.GoogleLogins.WithLabelValues(flow, "error").Inc()
		RespondInternal(ctx, "Could not create session")
		return
	}

	h.metrics.GoogleLogins.WithLabelValues(flow, "ok").Inc()

	// Browser gets a cookie; the installed PWA gets a bearer token to replay
	// in the Authorization header.
	if mode == session.ModeBearer {
		ctx.JSON(http.StatusOK, gin.H{
			"user":  u.Safe(),
			"token": token,
		})
		return
	}

	h.cookies.SetSession(ctx, token)

	ctx.JSON(http.StatusOK, gin.H{
		"user": u.Safe(),
	})
}

// Me returns the user resolved by the CurrentUser middleware.
func (h *AuthHandler) Me(ctx *gin.Context) {
	u, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated.")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u.Safe()})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	h.cookies.ClearSession(ctx)

	ctx.JSON(http.StatusOK, gin.H{"message": "Logged out."})
}

// SaveToken parks the current session cookie in the vault so a demo session
// can shadow it and the real session can come back afterwards.
func (h *AuthHandler) SaveToken(ctx *gin.Context) {
	raw, err := ctx.Cookie(session.SessionCookie)

	if err != nil || raw == "" {
		RespondBadRequest(ctx, "missing_token", "No session token to save.")
		return
	}

	key := session.ClientKey(ctx.Request)

	if err := h.vault.Save(ctx.Request.Context(), key, raw); err != nil {
		RespondInternal(ctx, "Could not save session")
		return
	}

	h.metrics.VaultOps.WithLabelValues("save").Inc()

	ctx.JSON(http.StatusOK, gin.H{
		"message":    "Session saved.",
		"restoreKey": key,
	})
}

// RestoreToken re-attaches a vaulted session as the primary cookie and burns
// the vault entry. A second restore for the same key fails.
func (h *AuthHandler) RestoreToken(ctx *gin.Context) {
	key := session.ClientKey(ctx.Request)

	token, err := h.vault.Get(ctx.Request.Context(), key)

	if err != nil {
		if errors.Is(err, session.ErrVaultMiss) {
			h.metrics.VaultOps.WithLabelValues("miss").Inc()
			RespondNotFound(ctx, "restore_token_not_found", "No saved session to restore.")
			return
		}

		RespondInternal(ctx, "Could not restore session")
		return
	}

	h.cookies.SetSession(ctx, token)

	if err := h.vault.Delete(ctx.Request.Context(), key); err != nil {
		slog.Default().ErrorContext(ctx.Request.Context(), "vault delete failed", "err", err)
	}

	h.metrics.VaultOps.WithLabelValues("restore").Inc()

	ctx.JSON(http.StatusOK, gin.H{"message": "Session restored."})
}

// StopDemo expires the demo cookie and, when a real session is parked for
// this client, restores it in the same response.
func (h *AuthHandler) StopDemo(ctx *gin.Context) {
	h.cookies.ClearDemo(ctx)

	key := session.ClientKey(ctx.Request)
	restored := false

	token, err := h.vault.Get(ctx.Request.Context(), key)

	if err == nil {
		h.cookies.SetSession(ctx, token)

		if err := h.vault.Delete(ctx.Request.Context(), key); err != nil {
			slog.Default().ErrorContext(ctx.Request.Context(), "vault delete failed", "err", err)
		}

		h.metrics.VaultOps.WithLabelValues("restore").Inc()

		restored = true
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":  "Demo ended.",
		"restored": restored,
	})
}
