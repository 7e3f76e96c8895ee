// Package metrics exposes Prometheus collectors for the completion path and the HTTP surface.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the server records. A nil *Metrics is valid
// and records nothing, so components never need to check whether metrics are enabled.
type Metrics struct {
	CompletionAttempts *prometheus.CounterVec
	CompletionDuration *prometheus.HistogramVec
	AssistantReplies   *prometheus.CounterVec
	Insights           *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CompletionAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cemas_completion_attempts_total",
				Help: "Completion provider attempts by outcome",
			},
			[]string{"outcome"},
		),
		CompletionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cemas_completion_duration_seconds",
				Help:    "Duration of single completion attempts in seconds",
				Buckets: []float64{.25, .5, 1, 2, 4, 8, 15, 30, 60},
			},
			[]string{"outcome"},
		),
		AssistantReplies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cemas_assistant_replies_total",
				Help: "Assistant replies by status (generated, failed)",
			},
			[]string{"status"},
		),
		Insights: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cemas_insights_total",
				Help: "Insight syntheses by outcome",
			},
			[]string{"outcome"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cemas_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cemas_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// RecordCompletionAttempt records one provider round trip. outcome is "success" or a failure kind.
func (m *Metrics) RecordCompletionAttempt(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CompletionAttempts.WithLabelValues(outcome).Inc()
	m.CompletionDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *Metrics) RecordAssistantReply(status string) {
	if m == nil {
		return
	}
	m.AssistantReplies.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordInsight(outcome string) {
	if m == nil {
		return
	}
	m.Insights.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, status).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
