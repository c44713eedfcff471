// SPDX-FileCopyrightText: Copyright 2026 Sweep Labs, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package upstream talks to the third-party identity provider. The
// provider's consent, token and userinfo endpoints are external
// collaborators; everything here treats them as opaque HTTP surfaces
// discovered through OIDC.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/sweeplabs/sweepd/pkg/logger"
)

// DefaultIssuer is the identity provider the game ships with.
const DefaultIssuer = "https://accounts.google.com"

// defaultScopes cover identity resolution; email is the claim we keep.
var defaultScopes = []string{oidc.ScopeOpenID, "email", "profile"}

// IdentityProvider resolves a player's identity from an authorization
// code. Implementations hold the server-side client credentials; the
// client never sees them.
type IdentityProvider interface {
	// AuthorizationURL builds the consent URL the client opens in its
	// popup, with the correlation token embedded as the OAuth state.
	AuthorizationURL(state string) string

	// ResolveIdentity exchanges the authorization code for an access
	// token and returns the caller's verified email.
	ResolveIdentity(ctx context.Context, code string) (string, error)
}

// Config contains the deployment-time OAuth client settings.
type Config struct {
	// Issuer is the identity provider's OIDC issuer URL. Endpoints are
	// discovered from {Issuer}/.well-known/openid-configuration.
	Issuer string

	// ClientID and ClientSecret are the server-held client credentials.
	ClientID     string
	ClientSecret string

	// RedirectURI is where the provider sends the browser after consent;
	// it must point at the OAuth callback endpoint.
	RedirectURI string

	// Scopes overrides the default openid/email/profile set.
	Scopes []string
}

// Validate checks that Config has all required fields.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return errors.New("client id is required")
	}
	if c.ClientSecret == "" {
		return errors.New("client secret is required")
	}
	if c.RedirectURI == "" {
		return errors.New("redirect URI is required")
	}
	return nil
}

// OIDCProvider implements IdentityProvider against any OIDC-compliant
// identity provider.
type OIDCProvider struct {
	provider   *oidc.Provider
	oauth      *oauth2.Config
	httpClient *http.Client
}

// OIDCProviderOption configures an OIDCProvider.
type OIDCProviderOption func(*OIDCProvider)

// WithHTTPClient sets a custom HTTP client for discovery, token exchange
// and userinfo calls.
func WithHTTPClient(client *http.Client) OIDCProviderOption {
	return func(p *OIDCProvider) {
		p.httpClient = client
	}
}

// NewOIDCProvider performs OIDC discovery on the configured issuer and
// builds the authorization-code flow from the discovered endpoints.
func NewOIDCProvider(ctx context.Context, cfg Config, opts ...OIDCProviderOption) (*OIDCProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}

	p := &OIDCProvider{}
	for _, opt := range opts {
		opt(p)
	}

	provider, err := oidc.NewProvider(p.clientContext(ctx), cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC endpoints: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}

	p.provider = provider
	p.oauth = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     provider.Endpoint(),
		Scopes:       scopes,
	}

	logger.Infow("identity provider ready",
		"issuer", cfg.Issuer,
		"client_id", cfg.ClientID,
	)

	return p, nil
}

// clientContext threads the custom HTTP client into both go-oidc and
// x/oauth2 call paths.
func (p *OIDCProvider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return oidc.ClientContext(ctx, p.httpClient)
}

// AuthorizationURL builds the consent URL with the correlation token as
// the OAuth state parameter.
func (p *OIDCProvider) AuthorizationURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

// ResolveIdentity exchanges the code through the authorization-code grant
// and reads the caller's email from the provider's userinfo endpoint.
func (p *OIDCProvider) ResolveIdentity(ctx context.Context, code string) (string, error) {
	if code == "" {
		return "", errors.New("authorization code is required")
	}

	ctx = p.clientContext(ctx)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("authorization code exchange failed: %w", err)
	}

	info, err := p.provider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return "", fmt.Errorf("userinfo request failed: %w", err)
	}
	if info.Email == "" {
		return "", errors.New("userinfo response has no email")
	}

	logger.Debugw("identity resolved", "email", info.Email)
	return info.Email, nil
}

// Compile-time interface compliance check.
var _ IdentityProvider = (*OIDCProvider)(nil)
