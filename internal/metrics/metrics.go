// Package metrics exposes prometheus collectors for provider and feed activity.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sportsdesk"

// Metrics groups the service collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	providerCalls   *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	fetchOutcomes   *prometheus.CounterVec
	chatTurns       *prometheus.CounterVec
	feedArticles    prometheus.Gauge
	credentialValid prometheus.Gauge
	refreshDropped  prometheus.Counter
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Provider calls by operation and error class.",
		}, []string{"operation", "class"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_call_duration_seconds",
			Help:      "Provider call latency.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}, []string{"operation"}),
		fetchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_outcomes_total",
			Help:      "Content fetch results by fetcher and outcome.",
		}, []string{"fetcher", "outcome"}),
		chatTurns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns sent, by result.",
		}, []string{"result"}),
		feedArticles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "feed_articles",
			Help:      "Articles in the current feed state.",
		}),
		credentialValid: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "credential_valid",
			Help:      "1 when the provider credential is considered valid.",
		}),
		refreshDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_refresh_stale_total",
			Help:      "Refresh results discarded because a newer refresh was already applied.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.providerCalls,
		m.providerLatency,
		m.fetchOutcomes,
		m.chatTurns,
		m.feedArticles,
		m.credentialValid,
		m.refreshDropped,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveProviderCall records one provider round trip.
func (m *Metrics) ObserveProviderCall(operation, class string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(operation, class).Inc()
	m.providerLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// FetchOutcome counts a fetcher result.
func (m *Metrics) FetchOutcome(fetcher, outcome string) {
	if m == nil {
		return
	}
	m.fetchOutcomes.WithLabelValues(fetcher, outcome).Inc()
}

// ChatTurn counts a chat turn result.
func (m *Metrics) ChatTurn(result string) {
	if m == nil {
		return
	}
	m.chatTurns.WithLabelValues(result).Inc()
}

// FeedApplied records the state of an applied refresh.
func (m *Metrics) FeedApplied(articles int, credentialValid bool) {
	if m == nil {
		return
	}
	m.feedArticles.Set(float64(articles))
	if credentialValid {
		m.credentialValid.Set(1)
	} else {
		m.credentialValid.Set(0)
	}
}

// RefreshDropped counts a stale refresh result.
func (m *Metrics) RefreshDropped() {
	if m == nil {
		return
	}
	m.refreshDropped.Inc()
}
