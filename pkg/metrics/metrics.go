package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "careercoach", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "careercoach", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	// OAuthCallbacks counts provider callbacks by terminal outcome ("success" or the failure stage).
	OAuthCallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "careercoach", Name: "oauth_callbacks_total", Help: "Number of OAuth callbacks by provider and outcome."},
		[]string{"provider", "outcome"},
	)
	UsersCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "careercoach", Name: "users_created_total", Help: "Number of user accounts created by origin (google, linkedin, password)."},
		[]string{"origin"},
	)
	TokensIssued = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "careercoach", Name: "tokens_issued_total", Help: "Number of bearer tokens issued."},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(OAuthCallbacks)
	reg.MustRegister(UsersCreated)
	reg.MustRegister(TokensIssued)
}
