package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestAPIRequestsTotal(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("/profile", "200"))

	APIRequestsTotal.WithLabelValues("/profile", "200").Inc()
	APIRequestsTotal.WithLabelValues("/profile", "200").Inc()

	assert.Equal(t, before+2, testutil.ToFloat64(APIRequestsTotal.WithLabelValues("/profile", "200")))
}

func TestAPIRequestDuration(t *testing.T) {
	APIRequestDuration.WithLabelValues("/verify-otp", "200").Observe(0.05)
	APIRequestDuration.WithLabelValues("/verify-otp", "error").Observe(1.5)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(APIRequestDuration), 2)
}

func TestSessionLoggedIn(t *testing.T) {
	SessionLoggedIn.Set(1)
	assert.Equal(t, float64(1), testutil.ToFloat64(SessionLoggedIn))

	SessionLoggedIn.Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(SessionLoggedIn))
}

func TestOTPSubmissionsTotal(t *testing.T) {
	before := testutil.ToFloat64(OTPSubmissionsTotal.WithLabelValues("rejected"))
	OTPSubmissionsTotal.WithLabelValues("rejected").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(OTPSubmissionsTotal.WithLabelValues("rejected")))
}

func TestAgentMetrics(t *testing.T) {
	before := testutil.ToFloat64(AgentHTTPRequestsTotal.WithLabelValues("GET", "/session", "200"))
	AgentHTTPRequestsTotal.WithLabelValues("GET", "/session", "200").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(AgentHTTPRequestsTotal.WithLabelValues("GET", "/session", "200")))

	AgentEventSubscribers.Inc()
	AgentEventSubscribers.Dec()
	assert.Equal(t, float64(0), testutil.ToFloat64(AgentEventSubscribers))
}
