package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mlegrand/stashhub/internal/domain/user"
	"github.com/mlegrand/stashhub/internal/repo/postgres"
)

// UsersRepo is a mutex-guarded in-memory store with the same contract as the
// postgres repo. Used by handler tests and local hacking.
type UsersRepo struct {
	mu    sync.RWMutex
	users map[string]user.User // by id
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{users: make(map[string]user.User)}
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}

	return user.User{}, postgres.ErrUserNotFound
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	return u, nil
}

func (r *UsersRepo) Create(_ context.Context, n user.NewUser) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == n.Email {
			return user.User{}, postgres.ErrEmailAlreadyUsed
		}
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Email:        n.Email,
		PasswordHash: n.PasswordHash,
		Name:         n.Name,
		Role:         n.Role,
		Picture:      n.Picture,
		Provider:     n.Provider,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) Update(_ context.Context, id string, upd user.Update) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]

	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}

	if upd.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *upd.Email {
				return user.User{}, postgres.ErrEmailAlreadyUsed
			}
		}

		u.Email = *upd.Email
	}

	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Picture != nil {
		u.Picture = *upd.Picture
	}
	if upd.PasswordHash != nil {
		u.PasswordHash = *upd.PasswordHash
	}
	if upd.Role != nil {
		u.Role = *upd.Role
	}
	if upd.Settings != nil {
		u.Settings = upd.Settings
	}

	u.UpdatedAt = time.Now().UTC()
	r.users[id] = u

	return u, nil
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return postgres.ErrUserNotFound
	}

	delete(r.users, id)

	return nil
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]user.User, 0, len(r.users))

	for _, u := range r.users {
		users = append(users, u)
	}

	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })

	return users, nil
}
