package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Class selects the lifetime and cookie namespace of a minted token.
type Class string

const (
	ClassSession Class = "session"
	ClassPWA     Class = "pwa"
	ClassDemo    Class = "demo"
)

const (
	SessionTTL = 7 * 24 * time.Hour
	DemoTTL    = time.Hour
)

// TTL returns the lifetime for a token class. PWA bearer tokens live as long
// as the cookie variant.
func (c Class) TTL() time.Duration {
	if c == ClassDemo {
		return DemoTTL
	}
	return SessionTTL
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// Claims snapshot the identity at issuance. Name/email/role are display
// conveniences; authorization decisions re-read the user record.
type Claims struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	TokenClass string `json:"typ"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

func (m *Manager) Issue(userID, email, name, role string, class Class) (string, error) {
	now := time.Now().UTC()

	claims := Claims{
		Email:      email,
		Name:       name,
		Role:       role,
		TokenClass: string(class),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(class.TTL())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(m.secret)
}

// Verify checks signature and expiry and returns the decoded claims. Every
// failure collapses to ErrInvalidToken or ErrExpiredToken; callers treat both
// as unauthenticated.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256

		_, ok := t.Method.(*jwt.SigningMethodHMAC)

		if !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)

	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
