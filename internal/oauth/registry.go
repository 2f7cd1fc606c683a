package oauth

import (
	"context"
	"fmt"

	"github.com/careercoach/careercoach/backend/go-services/internal/config"
	"github.com/careercoach/careercoach/backend/go-services/internal/models"
	"github.com/careercoach/careercoach/backend/go-services/pkg/logger"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/linkedin"
)

var oidcScopes = []string{"openid", "profile", "email"}

// Google is the Google OpenID Connect provider.
var Google = Provider{
	Name:        models.ProviderGoogle,
	Endpoint:    google.Endpoint,
	Issuer:      "https://accounts.google.com",
	JWKSURL:     "https://www.googleapis.com/oauth2/v3/certs",
	UserInfoURL: "https://openidconnect.googleapis.com/v1/userinfo",
	Scopes:      oidcScopes,
	PKCE:        true,
}

// LinkedIn is "Sign In with LinkedIn using OpenID Connect". LinkedIn only
// accepts PKCE for native clients, so the web flow relies on state alone.
var LinkedIn = Provider{
	Name:        models.ProviderLinkedIn,
	Endpoint:    linkedin.Endpoint,
	Issuer:      "https://www.linkedin.com/oauth",
	JWKSURL:     "https://www.linkedin.com/oauth/openid/jwks",
	UserInfoURL: "https://api.linkedin.com/v2/userinfo",
	Scopes:      oidcScopes,
	PKCE:        false,
}

// KnownProviders maps a provider name to its endpoints.
var KnownProviders = map[string]Provider{
	models.ProviderGoogle:   Google,
	models.ProviderLinkedIn: LinkedIn,
}

// Registry holds the strategies that are configured for this process.
type Registry struct {
	order  []string
	byName map[string]Strategy
}

// NewRegistry builds one strategy per provider with complete credentials.
// Incomplete providers are skipped with an info log.
func NewRegistry(ctx context.Context, providers []config.ProviderConfig, opts ...StrategyOption) (*Registry, error) {
	var strategies []Strategy
	for _, pc := range providers {
		if !pc.Complete() {
			logger.Infof("%s OAuth not configured - skipping %s strategy", pc.Name, pc.Name)
			continue
		}
		p, ok := KnownProviders[pc.Name]
		if !ok {
			return nil, fmt.Errorf("unknown OAuth provider %q", pc.Name)
		}
		s, err := NewStrategy(ctx, p, pc.ClientID, pc.ClientSecret, pc.CallbackURL, opts...)
		if err != nil {
			return nil, err
		}
		strategies = append(strategies, s)
	}
	r := NewRegistryFromStrategies(strategies...)
	logger.Infof("registered OAuth strategies: %v", r.Names())
	return r, nil
}

// NewRegistryFromStrategies keeps the given order; later duplicates are ignored.
func NewRegistryFromStrategies(strategies ...Strategy) *Registry {
	r := &Registry{byName: make(map[string]Strategy)}
	for _, s := range strategies {
		if _, dup := r.byName[s.Name()]; dup {
			continue
		}
		r.byName[s.Name()] = s
		r.order = append(r.order, s.Name())
	}
	return r
}

// Enabled returns the configured strategies in registration order.
func (r *Registry) Enabled() []Strategy {
	out := make([]Strategy, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.byName[n])
	}
	return out
}

func (r *Registry) Get(name string) (Strategy, bool) {
	s, ok := r.byName[name]
	return s, ok
}

func (r *Registry) Names() []string {
	return append([]string{}, r.order...)
}
