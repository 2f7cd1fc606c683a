package handlers

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"net/url"

	"github.com/careercoach/careercoach/backend/go-services/internal/models"
	"github.com/careercoach/careercoach/backend/go-services/internal/oauth"
	"github.com/careercoach/careercoach/backend/go-services/internal/sessions"
	"github.com/careercoach/careercoach/backend/go-services/pkg/logger"
	"github.com/careercoach/careercoach/backend/go-services/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// Reconciler maps a provider profile onto a local user. Satisfied by *users.Service.
type Reconciler interface {
	Reconcile(ctx context.Context, provider string, p *oauth.Profile) (*models.User, error)
}

// TokenIssuer signs bearer tokens. Satisfied by *tokens.Issuer.
type TokenIssuer interface {
	Issue(u *models.User) (string, error)
}

// OAuthHandler drives the provider handshake and hands the browser back to
// the frontend with either a bearer token or an error marker.
type OAuthHandler struct {
	registry    *oauth.Registry
	sessions    *sessions.Service
	serializer  *sessions.Serializer
	users       Reconciler
	issuer      TokenIssuer
	cookie      *SessionCookie
	frontendURL string
}

func NewOAuthHandler(reg *oauth.Registry, s *sessions.Service, z *sessions.Serializer, u Reconciler, iss TokenIssuer, cookie *SessionCookie, frontendURL string) *OAuthHandler {
	return &OAuthHandler{registry: reg, sessions: s, serializer: z, users: u, issuer: iss, cookie: cookie, frontendURL: frontendURL}
}

// Register mounts start and callback routes for every enabled provider only.
// An unconfigured provider has no routes and falls through to the 404 handler.
func (h *OAuthHandler) Register(rg *gin.RouterGroup) {
	a := rg.Group("/auth")
	a.GET("/providers", h.Providers)
	for _, s := range h.registry.Enabled() {
		a.GET("/"+s.Name(), h.begin(s))
		a.GET("/"+s.Name()+"/callback", h.callback(s))
		logger.Infof("mounted OAuth routes for %s", s.Name())
	}
}

// Providers lists the enabled providers so the login page can render buttons.
func (h *OAuthHandler) Providers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": h.registry.Names()})
}

func (h *OAuthHandler) begin(s oauth.Strategy) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if prev := h.cookie.id(c); prev != "" {
			if err := h.sessions.Destroy(ctx, prev); err != nil {
				logger.Warnf("%s: could not drop previous session: %v", s.Name(), err)
			}
		}
		sess, err := h.sessions.StartHandshake(ctx, s.Name())
		if err != nil {
			h.fail(c, s.Name(), "session", err)
			return
		}
		h.cookie.set(c, sess)
		c.Redirect(http.StatusFound, s.AuthCodeURL(sess.State, sess.CodeVerifier))
	}
}

func (h *OAuthHandler) callback(s oauth.Strategy) gin.HandlerFunc {
	provider := s.Name()
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		sess, err := h.sessions.Get(ctx, h.cookie.id(c))
		if err != nil {
			h.fail(c, provider, "session", err)
			return
		}
		if e := c.Query("error"); e != "" {
			h.fail(c, provider, "provider_error", fmt.Errorf("provider returned %q: %s", e, c.Query("error_description")), sess)
			return
		}
		if err := checkState(sess, provider, c.Query("state")); err != nil {
			h.fail(c, provider, "state", err, sess)
			return
		}

		profile, err := s.Verify(ctx, c.Query("code"), sess.CodeVerifier)
		if err != nil {
			h.fail(c, provider, "verify", err, sess)
			return
		}
		user, err := h.users.Reconcile(ctx, provider, profile)
		if err != nil {
			h.fail(c, provider, "reconcile", err, sess)
			return
		}
		loggedIn, err := h.serializer.Serialize(ctx, sess, user)
		if err != nil {
			h.fail(c, provider, "session", err, sess)
			return
		}
		token, err := h.issuer.Issue(user)
		if err != nil {
			h.fail(c, provider, "token", err, loggedIn)
			return
		}

		h.cookie.set(c, loggedIn)
		metrics.OAuthCallbacks.WithLabelValues(provider, "success").Inc()
		logger.Infof("%s sign-in succeeded for user %s", provider, user.ID)
		q := url.Values{}
		q.Set("token", token)
		q.Set("provider", provider)
		c.Redirect(http.StatusFound, h.frontendURL+"/auth/callback?"+q.Encode())
	}
}

// checkState requires a live handshake for this provider whose state matches.
func checkState(sess *sessions.Session, provider, state string) error {
	if sess == nil {
		return fmt.Errorf("no handshake session")
	}
	if sess.State == "" || sess.Provider != provider {
		return fmt.Errorf("session is not a %s handshake", provider)
	}
	if state == "" || subtle.ConstantTimeCompare([]byte(state), []byte(sess.State)) != 1 {
		return fmt.Errorf("state mismatch")
	}
	return nil
}

// fail logs the cause, drops any session touched by this attempt and sends
// the browser to the frontend login page.
func (h *OAuthHandler) fail(c *gin.Context, provider, stage string, err error, drop ...*sessions.Session) {
	logger.Errorf("%s OAuth callback failed at %s: %v", provider, stage, err)
	metrics.OAuthCallbacks.WithLabelValues(provider, stage).Inc()
	for _, s := range drop {
		if s == nil {
			continue
		}
		if derr := h.sessions.Destroy(c.Request.Context(), s.ID); derr != nil {
			logger.Warnf("%s: could not drop session after failure: %v", provider, derr)
		}
	}
	if len(drop) > 0 {
		h.cookie.clear(c)
	}
	c.Redirect(http.StatusFound, h.frontendURL+"/login?error=oauth_failed")
}
