package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signIDToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return raw
}

func TestStaticVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	v := NewStaticVerifier("https://issuer.test", "client-1", &key.PublicKey)

	now := time.Now()
	valid := jwt.MapClaims{
		"iss":   "https://issuer.test",
		"aud":   "client-1",
		"sub":   "sub-1",
		"email": "a@example.com",
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}

	tok, err := v.Verify(context.Background(), signIDToken(t, key, valid))
	require.NoError(t, err)
	var c struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
	}
	require.NoError(t, tok.Claims(&c))
	require.Equal(t, "sub-1", c.Sub)
	require.Equal(t, "a@example.com", c.Email)

	t.Run("wrong audience", func(t *testing.T) {
		bad := jwt.MapClaims{}
		for k, v := range valid {
			bad[k] = v
		}
		bad["aud"] = "someone-else"
		_, err := v.Verify(context.Background(), signIDToken(t, key, bad))
		require.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		bad := jwt.MapClaims{}
		for k, v := range valid {
			bad[k] = v
		}
		bad["exp"] = now.Add(-time.Hour).Unix()
		_, err := v.Verify(context.Background(), signIDToken(t, key, bad))
		require.Error(t, err)
	})

	t.Run("foreign key", func(t *testing.T) {
		other, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		_, err = v.Verify(context.Background(), signIDToken(t, other, valid))
		require.Error(t, err)
	})
}

func TestNewVerifierRequiresFields(t *testing.T) {
	_, err := NewVerifier(context.Background(), "https://issuer.test", "", "client")
	require.Error(t, err)
	v, err := NewVerifier(context.Background(), "https://issuer.test", "https://issuer.test/jwks", "client")
	require.NoError(t, err)
	require.NotNil(t, v)
}
