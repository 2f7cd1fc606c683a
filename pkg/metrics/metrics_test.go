package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	OAuthCallbacks.WithLabelValues("google", "success").Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(OAuthCallbacks.WithLabelValues("google", "success")))

	n, err := testutil.GatherAndCount(reg, "careercoach_oauth_callbacks_total")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// registering twice on the same registry is a programming error
	require.Panics(t, func() { RegisterCollectors(reg) })
}
