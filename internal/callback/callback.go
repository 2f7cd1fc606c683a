// Package callback resolves the query string the backend hands to the
// browser after an OAuth login and renders the landing page for it.
package callback

import (
	"net/url"
	"time"
)

type Kind int

const (
	Failed Kind = iota
	SignedIn
	NoToken
)

func (k Kind) String() string {
	switch k {
	case SignedIn:
		return "signed_in"
	case NoToken:
		return "no_token"
	}
	return "failed"
}

const (
	msgFailed  = "Authentication failed. Please try again."
	msgNoToken = "No authentication token received. Please try again."

	successDelay = 2 * time.Second
	failureDelay = 3 * time.Second
)

// Outcome is the single terminal state reached from one callback query.
// Token is non-empty only for SignedIn and is the value to store client-side.
type Outcome struct {
	Kind       Kind
	Message    string
	Token      string
	Provider   string
	RedirectTo string
	Delay      time.Duration
}

// Resolve reads token, provider and error once. A non-empty error parameter
// wins over a token, so a failed login never stores anything. An empty
// error value is treated as absent.
func Resolve(q url.Values) Outcome {
	token := q.Get("token")
	provider := q.Get("provider")

	switch {
	case q.Get("error") != "":
		return Outcome{Kind: Failed, Message: msgFailed, Provider: provider, RedirectTo: "/login", Delay: failureDelay}
	case token != "":
		name := provider
		if name == "" {
			name = "your account"
		}
		return Outcome{
			Kind:       SignedIn,
			Message:    "Successfully signed in with " + name + "! Redirecting...",
			Token:      token,
			Provider:   provider,
			RedirectTo: "/dashboard",
			Delay:      successDelay,
		}
	default:
		return Outcome{Kind: NoToken, Message: msgNoToken, Provider: provider, RedirectTo: "/login", Delay: failureDelay}
	}
}
