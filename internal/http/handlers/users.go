package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mlegrand/stashhub/internal/config"
	"github.com/mlegrand/stashhub/internal/domain/user"
	"github.com/mlegrand/stashhub/internal/http/middlewares"
	"github.com/mlegrand/stashhub/internal/repo/postgres"
	"github.com/mlegrand/stashhub/internal/security"
	"github.com/mlegrand/stashhub/internal/session"
)

// UserAdminStore extends the auth store with the mutating operations the
// profile and admin endpoints use.
type UserAdminStore interface {
	UserStore
	Update(ctx context.Context, id string, upd user.Update) (user.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]user.User, error)
}

type UsersHandler struct {
	users   UserAdminStore
	cookies session.Transport
}

func NewUsersHandler(users UserAdminStore, cookies session.Transport) *UsersHandler {
	return &UsersHandler{users: users, cookies: cookies}
}

type UpdateUserRequest struct {
	Name     *string         `json:"name" binding:"omitempty,min=2"`
	Email    *string         `json:"email" binding:"omitempty,email"`
	Picture  *string         `json:"picture"`
	Password *string         `json:"password"`
	Role     *string         `json:"role" binding:"omitempty,oneof=user admin"`
	Settings json.RawMessage `json:"settings"`
}

// canAccess gates a record to its owner or an admin.
func canAccess(caller user.User, id string) bool {
	return caller.ID == id || caller.IsAdmin()
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated.")
		return
	}

	id := ctx.Param("id")

	if !canAccess(caller, id) {
		RespondForbidden(ctx, "You can only view your own account.")
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "user_not_found", "User not found.")
			return
		}

		RespondInternal(ctx, "Could not load user")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"user": u.Safe()})
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated.")
		return
	}

	id := ctx.Param("id")

	if !canAccess(caller, id) {
		RespondForbidden(ctx, "You can only update your own account.")
		return
	}

	var req UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	upd := user.Update{
		Name:     req.Name,
		Email:    req.Email,
		Picture:  req.Picture,
		Settings: req.Settings,
	}

	if req.Password != nil {
		if err := security.ValidateStrength(*req.Password); err != nil {
			RespondBadRequest(ctx, "weak_password", "Password must be at least 8 characters with an upper, a lower, a digit and a symbol.")
			return
		}

		hash, err := security.HashPassword(*req.Password)

		if err != nil {
			RespondInternal(ctx, "Could not update user")
			return
		}

		upd.PasswordHash = &hash
	}

	// Only admins may change roles; for everyone else the field is ignored.
	if req.Role != nil && caller.IsAdmin() {
		upd.Role = req.Role
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	u, err := h.users.Update(cctx, id, upd)

	if err != nil {
		switch {
		case errors.Is(err, postgres.ErrUserNotFound):
			RespondNotFound(ctx, "user_not_found", "User not found.")
		case errors.Is(err, postgres.ErrEmailAlreadyUsed):
			RespondBadRequest(ctx, "email_taken", "Email is already in use.")
		default:
			RespondInternal(ctx, "Could not update user")
		}

		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User updated.",
		"user":    u.Safe(),
	})
}

func (h *UsersHandler) Delete(ctx *gin.Context) {
	caller, ok := middlewares.UserFromContext(ctx)

	if !ok {
		RespondUnauthorized(ctx, "unauthorized", "Not authenticated.")
		return
	}

	id := ctx.Param("id")

	if !canAccess(caller, id) {
		RespondForbidden(ctx, "You can only delete your own account.")
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.users.Delete(cctx, id); err != nil {
		if errors.Is(err, postgres.ErrUserNotFound) {
			RespondNotFound(ctx, "user_not_found", "User not found.")
			return
		}

		RespondInternal(ctx, "Could not delete user")
		return
	}

	// Deleting your own account also ends the session.
	if caller.ID == id {
		h.cookies.ClearSession(ctx)
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "User deleted."})
}

// List returns every account; the router guards it with RequireAdmin.
func (h *UsersHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	all, err := h.users.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list users")
		return
	}

	safe := make([]user.SafeUser, 0, len(all))

	for _, u := range all {
		safe = append(safe, u.Safe())
	}

	ctx.JSON(http.StatusOK, gin.H{"users": safe})
}
