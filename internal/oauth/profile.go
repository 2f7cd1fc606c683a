package oauth

import (
	"errors"
	"strings"
)

// ErrNoEmail is returned when a provider profile carries no usable email.
var ErrNoEmail = errors.New("oauth: provider profile has no email")

// Profile is the provider-neutral identity handed to reconciliation.
type Profile struct {
	ID          string
	Emails      []string
	DisplayName string
	Photos      []string
	// EmailUnverified is set when the provider explicitly reports the email as
	// not verified. Providers that omit the claim leave it false.
	EmailUnverified bool
}

// PrimaryEmail is the first email, lower-cased, or "".
func (p *Profile) PrimaryEmail() string {
	if p == nil || len(p.Emails) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(p.Emails[0]))
}

func (p *Profile) PrimaryPhoto() string {
	if p == nil || len(p.Photos) == 0 {
		return ""
	}
	return p.Photos[0]
}

// oidcClaims is the standard claim subset both id_tokens and userinfo responses carry.
type oidcClaims struct {
	Sub        string `json:"sub"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Picture    string `json:"picture"`
	// EmailVerified is nil when the provider omits the claim.
	EmailVerified *bool `json:"email_verified"`
}

func (c oidcClaims) profile() *Profile {
	p := &Profile{
		ID:              c.Sub,
		DisplayName:     firstNonEmpty(c.Name, strings.TrimSpace(c.GivenName+" "+c.FamilyName), c.Email),
		EmailUnverified: c.EmailVerified != nil && !*c.EmailVerified,
	}
	if c.Email != "" {
		p.Emails = []string{c.Email}
	}
	if c.Picture != "" {
		p.Photos = []string{c.Picture}
	}
	return p
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
