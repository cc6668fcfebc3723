package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "teamiq", Name: "http_requests_total", Help: "HTTP requests by method, route pattern and status class."},
		[]string{"method", "route", "status"},
	)
	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "teamiq",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	AuthEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "teamiq", Name: "auth_events_total", Help: "Authentication outcomes."},
		[]string{"event"},
	)
	AllocationRuns = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "teamiq", Name: "allocation_runs_total", Help: "Task allocation engine invocations."},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "teamiq", Name: "rate_limit_rejected_total", Help: "Requests rejected by the rate limiter."},
		[]string{"limiter"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(HTTPRequests)
	reg.MustRegister(HTTPDuration)
	reg.MustRegister(AuthEvents)
	reg.MustRegister(AllocationRuns)
	reg.MustRegister(RateLimitRejected)
}

func LoginSuccess() { AuthEvents.WithLabelValues("login_success").Inc() }
func LoginFailure() { AuthEvents.WithLabelValues("login_failure").Inc() }
func TokenRefresh() { AuthEvents.WithLabelValues("refresh").Inc() }
func Logout()       { AuthEvents.WithLabelValues("logout").Inc() }
