package user

import (
	"encoding/json"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	ID           string          `json:"id"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"` // never expose hash in JSON; empty for google accounts
	Name         string          `json:"name"`
	Role         string          `json:"role"`
	Picture      string          `json:"picture,omitempty"`
	Provider     string          `json:"provider"`
	Settings     json.RawMessage `json:"settings,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser carries the fields a store needs to create an account. PasswordHash
// stays empty for google-provider accounts.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Picture      string
	Provider     string
	Role         string
}

// Update lists mutable fields; nil means "leave as is".
type Update struct {
	Name         *string
	Email        *string
	Picture      *string
	PasswordHash *string
	Role         *string
	Settings     json.RawMessage
}

// SafeUser is the projection returned over HTTP.
type SafeUser struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Picture  string          `json:"picture,omitempty"`
	Provider string          `json:"provider"`
	Role     string          `json:"role"`
	Settings json.RawMessage `json:"settings,omitempty"`
}

// Safe strips everything a client has no business seeing, the password hash
// above all.
func (u User) Safe() SafeUser {
	return SafeUser{
		ID:       u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Picture:  u.Picture,
		Provider: u.Provider,
		Role:     u.Role,
		Settings: u.Settings,
	}
}
