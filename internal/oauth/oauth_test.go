package oauth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/careercoach/careercoach/backend/go-services/internal/config"
	"github.com/careercoach/careercoach/backend/go-services/internal/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testIssuer = "https://issuer.test"

// fakeProvider serves the token and userinfo endpoints of an OIDC provider.
type fakeProvider struct {
	srv          *httptest.Server
	key          *rsa.PrivateKey
	idClaims     jwt.MapClaims // nil: no id_token in the token response
	userinfo     map[string]interface{}
	gotVerifier  string
	gotCode      string
	userinfoHits int
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	fp := &fakeProvider{key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		fp.gotCode = r.PostForm.Get("code")
		fp.gotVerifier = r.PostForm.Get("code_verifier")
		if fp.gotCode == "bad" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		resp := map[string]interface{}{"access_token": "at-1", "token_type": "Bearer", "expires_in": 3600}
		if fp.idClaims != nil {
			raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, fp.idClaims).SignedString(fp.key)
			require.NoError(t, err)
			resp["id_token"] = raw
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		fp.userinfoHits++
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(fp.userinfo)
	})
	fp.srv = httptest.NewServer(mux)
	t.Cleanup(fp.srv.Close)
	return fp
}

func (fp *fakeProvider) provider(name string, pkce bool) Provider {
	return Provider{
		Name: name,
		Endpoint: oauth2.Endpoint{
			AuthURL:   fp.srv.URL + "/auth",
			TokenURL:  fp.srv.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		UserInfoURL: fp.srv.URL + "/userinfo",
		Scopes:      oidcScopes,
		PKCE:        pkce,
	}
}

func (fp *fakeProvider) strategy(t *testing.T, name string, pkce bool) Strategy {
	t.Helper()
	s, err := NewStrategy(context.Background(), fp.provider(name, pkce), "client-1", "secret-1", "http://localhost:5000/api/auth/"+name+"/callback",
		WithIDTokenVerifier(oidc.NewStaticVerifier(testIssuer, "client-1", &fp.key.PublicKey)),
		WithHTTPClient(fp.srv.Client()),
	)
	require.NoError(t, err)
	return s
}

func TestAuthCodeURL(t *testing.T) {
	fp := newFakeProvider(t)
	verifier := oauth2.GenerateVerifier()

	u, err := url.Parse(fp.strategy(t, "google", true).AuthCodeURL("state-1", verifier))
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "openid profile email", q.Get("scope"))
	assert.Equal(t, "client-1", q.Get("client_id"))
	assert.Equal(t, "http://localhost:5000/api/auth/google/callback", q.Get("redirect_uri"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier(verifier), q.Get("code_challenge"))

	u, err = url.Parse(fp.strategy(t, "linkedin", false).AuthCodeURL("state-2", verifier))
	require.NoError(t, err)
	assert.Empty(t, u.Query().Get("code_challenge"))
}

func TestVerifyWithIDToken(t *testing.T) {
	fp := newFakeProvider(t)
	now := time.Now()
	fp.idClaims = jwt.MapClaims{
		"iss":     testIssuer,
		"aud":     "client-1",
		"sub":     "g-123",
		"email":   "Ada@Example.com",
		"name":    "Ada Lovelace",
		"picture": "https://img.test/ada.png",
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	}

	p, err := fp.strategy(t, "google", true).Verify(context.Background(), "code-1", "verifier-1")
	require.NoError(t, err)
	assert.Equal(t, "code-1", fp.gotCode)
	assert.Equal(t, "verifier-1", fp.gotVerifier)
	assert.Equal(t, 0, fp.userinfoHits)
	assert.Equal(t, &Profile{
		ID:          "g-123",
		Emails:      []string{"Ada@Example.com"},
		DisplayName: "Ada Lovelace",
		Photos:      []string{"https://img.test/ada.png"},
	}, p)
	assert.Equal(t, "ada@example.com", p.PrimaryEmail())
}

func TestVerifyEmailVerifiedClaim(t *testing.T) {
	fp := newFakeProvider(t)
	fp.idClaims = jwt.MapClaims{
		"iss": testIssuer, "aud": "client-1", "sub": "g-123", "email": "ada@example.com",
		"email_verified": false,
		"exp":            time.Now().Add(time.Hour).Unix(),
	}
	p, err := fp.strategy(t, "google", true).Verify(context.Background(), "code-1", "v")
	require.NoError(t, err)
	assert.True(t, p.EmailUnverified)

	fp.idClaims["email_verified"] = true
	p, err = fp.strategy(t, "google", true).Verify(context.Background(), "code-1", "v")
	require.NoError(t, err)
	assert.False(t, p.EmailUnverified)

	fp.idClaims = nil
	fp.userinfo = map[string]interface{}{"sub": "li-9", "email": "grace@example.com", "email_verified": false}
	p, err = fp.strategy(t, "linkedin", false).Verify(context.Background(), "code-2", "")
	require.NoError(t, err)
	assert.True(t, p.EmailUnverified)
}

func TestVerifyRejectsForeignIDToken(t *testing.T) {
	fp := newFakeProvider(t)
	fp.idClaims = jwt.MapClaims{
		"iss": testIssuer, "aud": "other-client", "sub": "x", "email": "x@example.com",
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	_, err := fp.strategy(t, "google", true).Verify(context.Background(), "code-1", "v")
	require.Error(t, err)
}

func TestVerifyFallsBackToUserInfo(t *testing.T) {
	fp := newFakeProvider(t)
	fp.userinfo = map[string]interface{}{
		"sub":         "li-9",
		"email":       "grace@example.com",
		"given_name":  "Grace",
		"family_name": "Hopper",
	}

	p, err := fp.strategy(t, "linkedin", false).Verify(context.Background(), "code-2", "ignored")
	require.NoError(t, err)
	assert.Empty(t, fp.gotVerifier)
	assert.Equal(t, 1, fp.userinfoHits)
	assert.Equal(t, "li-9", p.ID)
	assert.Equal(t, "Grace Hopper", p.DisplayName)
	assert.Empty(t, p.Photos)
}

func TestVerifyFailures(t *testing.T) {
	fp := newFakeProvider(t)
	s := fp.strategy(t, "linkedin", false)

	_, err := s.Verify(context.Background(), "", "")
	require.Error(t, err)

	_, err = s.Verify(context.Background(), "bad", "")
	require.Error(t, err)

	fp.userinfo = map[string]interface{}{"sub": "li-1", "name": "No Mail"}
	_, err = s.Verify(context.Background(), "code", "")
	require.True(t, errors.Is(err, ErrNoEmail), "got %v", err)
}

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(context.Background(), []config.ProviderConfig{
		{Name: "google", ClientID: "gid", ClientSecret: "gsecret", CallbackURL: "http://cb/google"},
		{Name: "linkedin", ClientID: "lid"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"google"}, r.Names())
	_, ok := r.Get("linkedin")
	assert.False(t, ok)
	g, ok := r.Get("google")
	require.True(t, ok)
	assert.Contains(t, g.AuthCodeURL("s", "v"), "accounts.google.com")

	_, err = NewRegistry(context.Background(), []config.ProviderConfig{{Name: "github", ClientID: "a", ClientSecret: "b"}})
	require.Error(t, err)
}

func TestRegistryOrder(t *testing.T) {
	fp := newFakeProvider(t)
	r := NewRegistryFromStrategies(fp.strategy(t, "google", true), fp.strategy(t, "linkedin", false), fp.strategy(t, "google", true))
	var names []string
	for _, s := range r.Enabled() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"google", "linkedin"}, names)
}

func TestProfileHelpers(t *testing.T) {
	var nilProfile *Profile
	assert.Equal(t, "", nilProfile.PrimaryEmail())
	assert.Equal(t, "", (&Profile{}).PrimaryPhoto())
	assert.Equal(t, "b", firstNonEmpty("", " ", "b", "c"))
	assert.Equal(t, "x@example.com", oidcClaims{Sub: "1", Email: "x@example.com"}.profile().DisplayName)
}
