package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
)

func fakeValidator(t *testing.T, wantToken, wantAudience string, payload *idtoken.Payload, fail error) idTokenValidator {
	t.Helper()

	return func(ctx context.Context, token, audience string) (*idtoken.Payload, error) {
		if token != wantToken {
			t.Errorf("validator got token %q, want %q", token, wantToken)
		}
		if audience != wantAudience {
			t.Errorf("validator got audience %q, want %q", audience, wantAudience)
		}
		if fail != nil {
			return nil, fail
		}
		return payload, nil
	}
}

func TestVerifyIDToken(t *testing.T) {
	b := NewGoogleBridge("client-id", "client-secret")

	b.validate = fakeValidator(t, "good-token", "client-id", &idtoken.Payload{
		Subject: "google-sub-1",
		Claims: map[string]interface{}{
			"email":   "ana@x.com",
			"name":    "Ana",
			"picture": "https://img.example/ana.png",
		},
	}, nil)

	id, err := b.VerifyIDToken(context.Background(), "good-token")

	if err != nil {
		t.Fatalf("VerifyIDToken: %v", err)
	}

	if id.Subject != "google-sub-1" || id.Email != "ana@x.com" || id.Name != "Ana" {
		t.Errorf("unexpected identity: %+v", id)
	}
}

func TestVerifyIDTokenMissing(t *testing.T) {
	b := NewGoogleBridge("client-id", "client-secret")

	_, err := b.VerifyIDToken(context.Background(), "")

	if !errors.Is(err, ErrMissingGoogleToken) {
		t.Fatalf("err = %v, want ErrMissingGoogleToken", err)
	}
}

func TestVerifyIDTokenForged(t *testing.T) {
	b := NewGoogleBridge("client-id", "client-secret")
	b.validate = fakeValidator(t, "forged", "client-id", nil, errors.New("signature mismatch"))

	_, err := b.VerifyIDToken(context.Background(), "forged")

	if !errors.Is(err, ErrInvalidGoogleToken) {
		t.Fatalf("err = %v, want ErrInvalidGoogleToken", err)
	}
}

func TestExchangeCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.Form.Get("code"); got != "one-time-code" {
			t.Errorf("exchange got code %q", got)
		}
		if got := r.Form.Get("redirect_uri"); got != "postmessage" {
			t.Errorf("exchange got redirect_uri %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","id_token":"exchanged-id-token"}`))
	}))
	defer srv.Close()

	b := NewGoogleBridge("client-id", "client-secret")
	b.oauth.Endpoint = oauth2.Endpoint{TokenURL: srv.URL}
	b.validate = fakeValidator(t, "exchanged-id-token", "client-id", &idtoken.Payload{
		Subject: "google-sub-2",
		Claims:  map[string]interface{}{"email": "bob@x.com"},
	}, nil)

	id, err := b.ExchangeCode(context.Background(), "one-time-code")

	if err != nil {
		t.Fatalf("ExchangeCode: %v", err)
	}

	if id.Email != "bob@x.com" {
		t.Errorf("identity email = %q, want bob@x.com", id.Email)
	}
}

func TestExchangeCodeRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	b := NewGoogleBridge("client-id", "client-secret")
	b.oauth.Endpoint = oauth2.Endpoint{TokenURL: srv.URL}

	_, err := b.ExchangeCode(context.Background(), "stale-code")

	if !errors.Is(err, ErrInvalidGoogleToken) {
		t.Fatalf("err = %v, want ErrInvalidGoogleToken", err)
	}
}

func TestExchangeCodeProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	b := NewGoogleBridge("client-id", "client-secret")
	b.oauth.Endpoint = oauth2.Endpoint{TokenURL: srv.URL}

	_, err := b.ExchangeCode(context.Background(), "any-code")

	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("err = %v, want ErrProviderUnavailable", err)
	}
}

func TestExchangeCodeMissing(t *testing.T) {
	b := NewGoogleBridge("client-id", "client-secret")

	_, err := b.ExchangeCode(context.Background(), "")

	if !errors.Is(err, ErrMissingGoogleToken) {
		t.Fatalf("err = %v, want ErrMissingGoogleToken", err)
	}
}
