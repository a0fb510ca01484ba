// Package oidc wraps OpenID Connect sign-in against the institution's
// identity provider.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// ErrNoEmailClaim is returned when the ID token carries no email address.
// Accounts are provisioned by email, so a token without one is unusable.
var ErrNoEmailClaim = errors.New("id token has no email claim")

// ProviderConfig holds configuration for creating an OIDC provider.
type ProviderConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string // e.g., ["openid", "profile", "email"]

	// HostedDomain, when set, is passed to the IdP as the hd parameter so
	// the account chooser preselects campus accounts. The claim still has
	// to be checked after the exchange; the parameter is a hint, not a
	// guarantee.
	HostedDomain string
}

// Provider drives the campus sign-in flow: IdP discovery, the redirect URL,
// and the code-for-claims exchange.
type Provider struct {
	verifier     *gooidc.IDTokenVerifier
	oauth2Config oauth2.Config
	hostedDomain string
}

// NewProvider creates a Provider by performing OIDC discovery on the issuer URL.
func NewProvider(ctx context.Context, cfg ProviderConfig) (*Provider, error) {
	discovered, err := gooidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}

	return &Provider{
		verifier: discovered.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		oauth2Config: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     discovered.Endpoint(),
			Scopes:       scopes,
		},
		hostedDomain: cfg.HostedDomain,
	}, nil
}

// AuthCodeURL generates the IdP redirect URL with the given state and options.
func (p *Provider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	if p.hostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", p.hostedDomain))
	}
	return p.oauth2Config.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for a verified set of claims. The
// email claim is required and normalized to lower case, matching how user
// records store it.
func (p *Provider) Exchange(ctx context.Context, code string) (*Claims, error) {
	token, err := p.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, fmt.Errorf("no id_token in response")
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify id_token: %w", err)
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("extract claims: %w", err)
	}
	if claims.Email == "" {
		return nil, ErrNoEmailClaim
	}
	claims.Email = strings.ToLower(claims.Email)
	claims.Issuer = idToken.Issuer

	return &claims, nil
}
