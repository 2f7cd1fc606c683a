package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/careercoach/careercoach/backend/go-services/internal/models"
	"github.com/careercoach/careercoach/backend/go-services/pkg/metrics"
	"github.com/careercoach/careercoach/backend/go-services/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL is the bearer token lifetime.
const DefaultTTL = 7 * 24 * time.Hour

var ErrMissingSecret = errors.New("tokens: JWT secret is not configured")

// Claims is the bearer token payload.
type Claims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// Issuer signs and parses HS256 bearer tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue creates a signed token for the user.
func (i *Issuer) Issue(u *models.User) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrMissingSecret
	}
	if u == nil || u.ID == "" {
		return "", errors.New("tokens: user without id")
	}
	now := i.now()
	claims := Claims{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	metrics.TokensIssued.Inc()
	return signed, nil
}

// Parse validates signature, algorithm and expiry and returns the claims.
func (i *Issuer) Parse(raw string) (*Claims, error) {
	if len(i.secret) == 0 {
		return nil, ErrMissingSecret
	}
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return nil, err
	}
	if !tok.Valid || claims.UserID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// claimsToken exposes parsed claims through middleware.Token.
type claimsToken struct {
	claims *Claims
}

func (t *claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Verify adapts Parse to middleware.Verifier.
func (i *Issuer) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	c, err := i.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &claimsToken{claims: c}, nil
}
