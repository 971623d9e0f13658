// Package oidc verifies Google sign-in credentials, either an ID token posted
// by the client or an authorization code from the redirect flow.
package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/zedemy/zedemy/backend/go-services/internal/apperr"
	"github.com/zedemy/zedemy/backend/go-services/internal/config"
)

// Profile is the subset of verified ID-token claims the API uses.
type Profile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verifier turns a raw ID token into a verified profile.
type Verifier interface {
	VerifyIDToken(ctx context.Context, raw string) (*Profile, error)
}

// Google verifies ID tokens against Google's published keys and runs the
// authorization-code flow.
type Google struct {
	verifier *oidc.IDTokenVerifier
	oauth    *oauth2.Config
}

// NewGoogle discovers the issuer's configuration.
func NewGoogle(ctx context.Context, cfg config.GoogleConfig) (*Google, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("google client id missing: %w", apperr.ErrInvalid)
	}
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, apperr.Upstream("discover oidc provider", err)
	}
	return &Google{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func (g *Google) VerifyIDToken(ctx context.Context, raw string) (*Profile, error) {
	tok, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("google id token: %w: %v", apperr.ErrUnauthorized, err)
	}
	var p Profile
	if err := tok.Claims(&p); err != nil {
		return nil, fmt.Errorf("google id token claims: %w: %v", apperr.ErrUnauthorized, err)
	}
	return checkProfile(&p)
}

// AuthCodeURL is the consent page URL carrying state.
func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades an authorization code for tokens and verifies the ID token.
func (g *Google) Exchange(ctx context.Context, code string) (*Profile, error) {
	if g.oauth.RedirectURL == "" {
		return nil, fmt.Errorf("google redirect url not configured: %w", apperr.ErrInvalid)
	}
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w: %v", apperr.ErrUnauthorized, err)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return nil, fmt.Errorf("google token response has no id_token: %w", apperr.ErrUnauthorized)
	}
	return g.VerifyIDToken(ctx, raw)
}

func checkProfile(p *Profile) (*Profile, error) {
	if p.Sub == "" || p.Email == "" {
		return nil, fmt.Errorf("google id token lacks sub or email: %w", apperr.ErrUnauthorized)
	}
	return p, nil
}
