package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestIssueAndVerify(t *testing.T) {
	m := NewManager("test-secret-key")

	raw, err := m.Issue("user-1", "ana@x.com", "Ana", "user", ClassSession)

	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	claims, err := m.Verify(raw)

	if err != nil {
		t.Fatalf("Verify rejected a fresh token: %v", err)
	}

	if claims.Subject != "user-1" {
		t.Errorf("subject = %q, want user-1", claims.Subject)
	}

	if claims.Email != "ana@x.com" || claims.Name != "Ana" || claims.Role != "user" {
		t.Errorf("claims snapshot mismatch: %+v", claims)
	}

	if claims.TokenClass != string(ClassSession) {
		t.Errorf("token class = %q, want session", claims.TokenClass)
	}
}

func TestClassTTL(t *testing.T) {
	m := NewManager("test-secret-key")

	tests := []struct {
		class Class
		want  time.Duration
	}{
		{ClassSession, SessionTTL},
		{ClassPWA, SessionTTL},
		{ClassDemo, DemoTTL},
	}

	for _, tc := range tests {
		raw, err := m.Issue("user-1", "a@x.com", "A", "user", tc.class)
		if err != nil {
			t.Fatalf("Issue(%s): %v", tc.class, err)
		}

		claims, err := m.Verify(raw)
		if err != nil {
			t.Fatalf("Verify(%s): %v", tc.class, err)
		}

		lifetime := claims.ExpiresAt.Sub(claims.IssuedAt.Time)

		if lifetime != tc.want {
			t.Errorf("class %s lifetime = %v, want %v", tc.class, lifetime, tc.want)
		}
	}
}

func TestVerifyTamperedSignature(t *testing.T) {
	m := NewManager("test-secret-key")

	raw, err := m.Issue("user-1", "a@x.com", "A", "user", ClassSession)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %q", raw)
	}

	tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]

	if _, err := m.Verify(tampered); err == nil {
		t.Fatalf("Verify accepted a tampered signature")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	issuer := NewManager("secret-a")
	verifier := NewManager("secret-b")

	raw, err := issuer.Issue("user-1", "a@x.com", "A", "user", ClassSession)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := verifier.Verify(raw); err == nil {
		t.Fatalf("Verify accepted a token signed with another secret")
	}
}

func TestVerifyExpired(t *testing.T) {
	m := NewManager("test-secret-key")

	// Sign an already-expired token with the same secret.
	past := time.Now().UTC().Add(-2 * time.Hour)

	claims := Claims{
		Email:      "a@x.com",
		TokenClass: string(ClassSession),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Minute)),
		},
	}

	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-key"))
	if err != nil {
		t.Fatalf("signing expired token: %v", err)
	}

	_, err = m.Verify(raw)

	if err != ErrExpiredToken {
		t.Fatalf("Verify(expired) = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyGarbage(t *testing.T) {
	m := NewManager("test-secret-key")

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.Verify(raw); err != ErrInvalidToken {
			t.Errorf("Verify(%q) = %v, want ErrInvalidToken", raw, err)
		}
	}
}
