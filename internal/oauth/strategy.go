package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/careercoach/careercoach/backend/go-services/internal/oidc"
	"golang.org/x/oauth2"
)

// Strategy performs one provider's authorization-code handshake.
type Strategy interface {
	Name() string
	// AuthCodeURL is the consent URL. verifier is the PKCE code verifier; it is
	// ignored by providers that do not support PKCE.
	AuthCodeURL(state, verifier string) string
	// Verify exchanges the code and returns the normalised profile.
	Verify(ctx context.Context, code, verifier string) (*Profile, error)
}

// IDTokenVerifier is satisfied by *oidc.Verifier.
type IDTokenVerifier interface {
	Verify(ctx context.Context, raw string) (oidc.IDToken, error)
}

// Provider describes the endpoints of an OpenID Connect provider.
type Provider struct {
	Name        string
	Endpoint    oauth2.Endpoint
	Issuer      string
	JWKSURL     string
	UserInfoURL string
	Scopes      []string
	PKCE        bool
}

type oidcStrategy struct {
	provider   Provider
	conf       *oauth2.Config
	idVerifier IDTokenVerifier
	httpClient *http.Client
}

// StrategyOption customises a strategy, mostly for tests.
type StrategyOption func(*oidcStrategy)

// WithIDTokenVerifier replaces the remote-JWKS verifier.
func WithIDTokenVerifier(v IDTokenVerifier) StrategyOption {
	return func(s *oidcStrategy) { s.idVerifier = v }
}

// WithHTTPClient sets the client used for the token exchange and userinfo calls.
func WithHTTPClient(c *http.Client) StrategyOption {
	return func(s *oidcStrategy) { s.httpClient = c }
}

// NewStrategy builds a strategy for provider p using the given client registration.
func NewStrategy(ctx context.Context, p Provider, clientID, clientSecret, callbackURL string, opts ...StrategyOption) (Strategy, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%s: client id and secret are required", p.Name)
	}
	s := &oidcStrategy{
		provider: p,
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     p.Endpoint,
			RedirectURL:  callbackURL,
			Scopes:       p.Scopes,
		},
	}
	for _, o := range opts {
		o(s)
	}
	if s.idVerifier == nil && p.Issuer != "" && p.JWKSURL != "" {
		if s.httpClient != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
		}
		v, err := oidc.NewVerifier(ctx, p.Issuer, p.JWKSURL, clientID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Name, err)
		}
		s.idVerifier = v
	}
	return s, nil
}

func (s *oidcStrategy) Name() string { return s.provider.Name }

func (s *oidcStrategy) AuthCodeURL(state, verifier string) string {
	var opts []oauth2.AuthCodeOption
	if s.provider.PKCE && verifier != "" {
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	}
	return s.conf.AuthCodeURL(state, opts...)
}

func (s *oidcStrategy) Verify(ctx context.Context, code, verifier string) (*Profile, error) {
	if code == "" {
		return nil, errors.New("missing authorization code")
	}
	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}
	var opts []oauth2.AuthCodeOption
	if s.provider.PKCE && verifier != "" {
		opts = append(opts, oauth2.VerifierOption(verifier))
	}
	tok, err := s.conf.Exchange(ctx, code, opts...)
	if err != nil {
		return nil, fmt.Errorf("%s token exchange: %w", s.provider.Name, err)
	}

	var claims oidcClaims
	if raw, _ := tok.Extra("id_token").(string); raw != "" && s.idVerifier != nil {
		idt, err := s.idVerifier.Verify(ctx, raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.provider.Name, err)
		}
		if err := idt.Claims(&claims); err != nil {
			return nil, fmt.Errorf("%s id_token claims: %w", s.provider.Name, err)
		}
	} else {
		if err := s.fetchUserInfo(ctx, tok, &claims); err != nil {
			return nil, err
		}
	}

	p := claims.profile()
	if p.ID == "" {
		return nil, fmt.Errorf("%s: profile has no subject", s.provider.Name)
	}
	if p.PrimaryEmail() == "" {
		return nil, fmt.Errorf("%s: %w", s.provider.Name, ErrNoEmail)
	}
	return p, nil
}

func (s *oidcStrategy) fetchUserInfo(ctx context.Context, tok *oauth2.Token, out *oidcClaims) error {
	if s.provider.UserInfoURL == "" {
		return fmt.Errorf("%s: no id_token and no userinfo endpoint", s.provider.Name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.provider.UserInfoURL, nil)
	if err != nil {
		return fmt.Errorf("%s userinfo request: %w", s.provider.Name, err)
	}
	resp, err := s.conf.Client(ctx, tok).Do(req)
	if err != nil {
		return fmt.Errorf("%s userinfo: %w", s.provider.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s userinfo: status %d: %s", s.provider.Name, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s userinfo decode: %w", s.provider.Name, err)
	}
	return nil
}
