package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

var (
	ErrMissingGoogleToken  = errors.New("missing google token")
	ErrInvalidGoogleToken  = errors.New("invalid google token")
	ErrProviderUnavailable = errors.New("google provider unavailable")
)

// GoogleIdentity is the verified slice of an ID token the rest of the system
// cares about.
type GoogleIdentity struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

type idTokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// GoogleBridge turns Google-issued artifacts into verified identities.
// Browser clients hand us an ID token directly; the installed PWA hands us a
// one-time authorization code to exchange first.
type GoogleBridge struct {
	clientID string
	oauth    *oauth2.Config
	validate idTokenValidator
	timeout  time.Duration
}

func NewGoogleBridge(clientID, clientSecret string) *GoogleBridge {
	return &GoogleBridge{
		clientID: clientID,
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			// The redirect URI Google expects for popup/installed-app code flows.
			RedirectURL: "postmessage",
		},
		validate: idtoken.Validate,
		timeout:  5 * time.Second,
	}
}

// VerifyIDToken validates a browser-flow ID token against Google's public
// keys and the configured client id.
func (b *GoogleBridge) VerifyIDToken(ctx context.Context, raw string) (GoogleIdentity, error) {
	if raw == "" {
		return GoogleIdentity{}, ErrMissingGoogleToken
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	payload, err := b.validate(ctx, raw, b.clientID)

	if err != nil {
		if ctx.Err() != nil {
			return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}

		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
	}

	return identityFromPayload(payload), nil
}

// ExchangeCode runs the installed-app flow: trade the one-time code for an ID
// token at Google's token endpoint, then verify it like the browser flow.
func (b *GoogleBridge) ExchangeCode(ctx context.Context, code string) (GoogleIdentity, error) {
	if code == "" {
		return GoogleIdentity{}, ErrMissingGoogleToken
	}

	cctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	tok, err := b.oauth.Exchange(cctx, code)

	if err != nil {
		var retrieveErr *oauth2.RetrieveError

		if errors.As(err, &retrieveErr) {
			// Google answered; the code itself is bad.
			return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrInvalidGoogleToken, err)
		}

		return GoogleIdentity{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	raw, _ := tok.Extra("id_token").(string)

	if raw == "" {
		return GoogleIdentity{}, fmt.Errorf("%w: exchange response carried no id_token", ErrInvalidGoogleToken)
	}

	return b.VerifyIDToken(ctx, raw)
}

func identityFromPayload(p *idtoken.Payload) GoogleIdentity {
	claim := func(key string) string {
		s, _ := p.Claims[key].(string)
		return s
	}

	return GoogleIdentity{
		Subject: p.Subject,
		Email:   claim("email"),
		Name:    claim("name"),
		Picture: claim("picture"),
	}
}
