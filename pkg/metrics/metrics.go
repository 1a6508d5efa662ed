package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the push delivery engine.
type Metrics struct {
	registry *prometheus.Registry

	Notifications *prometheus.CounterVec
	Sends         *prometheus.CounterVec
	TokensRemoved prometheus.Counter
	BreakerOpen   prometheus.Gauge
	SendDuration  prometheus.Histogram
}

// New builds a Metrics collector backed by its own registry so tests can
// construct independent instances.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "push_notifications_total",
				Help: "Notification calls processed, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		Sends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "push_sends_total",
				Help: "Per-token send attempts, by result",
			},
			[]string{"result"},
		),
		TokensRemoved: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "push_tokens_removed_total",
				Help: "Device tokens removed after terminal provider rejections",
			},
		),
		BreakerOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "push_breaker_open",
				Help: "1 while the provider circuit breaker is open, 0 otherwise",
			},
		),
		SendDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "push_send_duration_seconds",
				Help:    "Wall-clock duration of one notification dispatch",
				Buckets: prometheus.DefBuckets,
			},
		),
	}

	m.registry.MustRegister(
		m.Notifications,
		m.Sends,
		m.TokensRemoved,
		m.BreakerOpen,
		m.SendDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler exposes the registry in prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
