// Package metrics provides Prometheus collectors for gateway calls and test
// outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hairizuan-noorazman/helpdesk-pilot/gateway"
	"github.com/hairizuan-noorazman/helpdesk-pilot/testcase"
)

const namespace = "helpdesk_pilot"

// Metrics holds the pilot's Prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	// Gateway metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Test execution metrics
	TestsTotal     *prometheus.CounterVec
	TestDuration   prometheus.Histogram
	TokensTotal    *prometheus.CounterVec
	CostTotal      prometheus.Counter
	CredentialUses *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "gateway_requests_total",
				Help:      "Total number of helpdesk API calls",
			},
			[]string{"mode", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "gateway_request_duration_seconds",
				Help:      "Helpdesk API call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"mode", "method"},
		),
		TestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tests_total",
				Help:      "Total number of test cases by final status",
			},
			[]string{"status"},
		),
		TestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "test_duration_seconds",
				Help:      "Wall-clock duration of executed test cases",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		),
		TokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_tokens_total",
				Help:      "Model tokens consumed by direction",
			},
			[]string{"direction"},
		),
		CostTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_cost_dollars_total",
				Help:      "Estimated model cost in dollars",
			},
		),
		CredentialUses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "credential_uses_total",
				Help:      "Number of test cases executed per pooled credential",
			},
			[]string{"index"},
		),
	}
}

// StatusClass buckets an HTTP status code; 0 means the call never completed.
func StatusClass(status int) string {
	if status <= 0 {
		return "transport_error"
	}
	return strconv.Itoa(status/100) + "xx"
}

// ObserveRequest implements gateway.Observer.
func (m *Metrics) ObserveRequest(mode gateway.AuthMode, method string, status int, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(string(mode), method, StatusClass(status)).Inc()
	m.RequestDuration.WithLabelValues(string(mode), method).Observe(elapsed.Seconds())
}

// ObserveTest records the outcome of one test case.
func (m *Metrics) ObserveTest(tc *testcase.TestCase) {
	m.TestsTotal.WithLabelValues(string(tc.Status)).Inc()
	if tc.Status == testcase.StatusSkipped {
		return
	}
	m.TestDuration.Observe(tc.DurationSeconds())
	m.TokensTotal.WithLabelValues("input").Add(float64(tc.InputTokens))
	m.TokensTotal.WithLabelValues("output").Add(float64(tc.OutputTokens))
	m.CostTotal.Add(tc.Cost)
}

// ObserveCredential counts one use of the pooled credential at index.
func (m *Metrics) ObserveCredential(index int) {
	m.CredentialUses.WithLabelValues(strconv.Itoa(index)).Inc()
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
