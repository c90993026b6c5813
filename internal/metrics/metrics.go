// internal/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInFlight        prometheus.Gauge

	smsTotal       *prometheus.CounterVec
	campaignsTotal *prometheus.CounterVec
	importRows     *prometheus.CounterVec
	jobsTotal      *prometheus.CounterVec
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		httpRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		httpRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		httpInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_inflight_requests",
				Help: "Number of HTTP requests currently being served",
			},
		),
		smsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membercast_sms_total",
				Help: "SMS send attempts by outcome",
			},
			[]string{"outcome"},
		),
		campaignsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membercast_campaigns_total",
				Help: "Completed campaign sends by final status",
			},
			[]string{"status"},
		),
		importRows: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membercast_import_rows_total",
				Help: "Member import rows written by operation and outcome",
			},
			[]string{"op", "outcome"},
		),
		jobsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "membercast_queue_jobs_total",
				Help: "Queued campaign jobs by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *Metrics) RequestStarted() {
	if m == nil {
		return
	}
	m.httpInFlight.Inc()
}

func (m *Metrics) RequestFinished(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpInFlight.Dec()
	labels := prometheus.Labels{"method": method, "route": route, "status": strconv.Itoa(status)}
	m.httpRequestsTotal.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(elapsed.Seconds())
}

func (m *Metrics) SMSAttempt(ok bool) {
	if m == nil {
		return
	}
	m.smsTotal.WithLabelValues(outcome(ok)).Inc()
}

func (m *Metrics) CampaignFinished(status string) {
	if m == nil {
		return
	}
	m.campaignsTotal.WithLabelValues(status).Inc()
}

// ImportRow counts one insert or update from an import commit.
func (m *Metrics) ImportRow(op string, ok bool) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(op, outcome(ok)).Inc()
}

func (m *Metrics) JobProcessed(ok bool) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(outcome(ok)).Inc()
}
