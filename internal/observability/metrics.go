package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Backend API metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "authfort_api_request_duration_seconds",
			Help:    "Backend API request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "status"},
	)

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authfort_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"endpoint", "status"},
	)

	// Session metrics
	SessionLoggedIn = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "authfort_session_logged_in",
			Help: "1 when the client holds an authenticated session",
		},
	)

	OTPSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authfort_otp_submissions_total",
			Help: "OTP verification submissions by result",
		},
		[]string{"result"},
	)

	// Agent metrics
	AgentHTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authfort_agent_http_requests_total",
			Help: "Total number of requests served by the local agent",
		},
		[]string{"method", "path", "status"},
	)

	AgentEventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "authfort_agent_event_subscribers",
			Help: "Number of connected session event subscribers",
		},
	)
)
