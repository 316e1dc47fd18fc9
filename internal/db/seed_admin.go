package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mlegrand/stashhub/internal/config"
	"github.com/mlegrand/stashhub/internal/domain/user"
	"github.com/mlegrand/stashhub/internal/repo/postgres"
	"github.com/mlegrand/stashhub/internal/security"
)

// EnsureAdminUser creates the configured admin account on first boot. No-op
// when the account exists or no admin credentials are configured.
func EnsureAdminUser(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var dummy string

	err := pool.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, cfg.AdminEmail).Scan(&dummy)

	if err == nil {
		return nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)

	if err != nil {
		return err
	}

	_, err = postgres.NewUsersRepo(pool).Create(ctx, user.NewUser{
		Name:         cfg.AdminName,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Provider:     user.ProviderLocal,
		Role:         user.RoleAdmin,
	})

	return err
}
