// Package metrics exposes bot activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/kinobot/core/logger"
)

const namespace = "kinobot"

// Gauges are sampled on scrape. Nil funcs are not registered.
type Gauges struct {
	ActiveSessions func() float64
	ActiveLanes    func() float64
}

// Metrics holds the bot's collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	handled      *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	replies      *prometheus.CounterVec
	broadcasts   *prometheus.CounterVec
	breakerState *prometheus.GaugeVec
}

// New registers the collectors on a fresh registry.
func New(g Gauges) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		reg: reg,
		handled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "updates_handled_total",
			Help:      "Updates handled, by handler and status.",
		}, []string{"handler", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handler_duration_seconds",
			Help:      "Handler latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
		replies: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_sent_total",
			Help:      "Messages sent in reply to updates, by keyboard presence.",
		}, []string{"keyboard"}),
		broadcasts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broadcast_messages_total",
			Help:      "Broadcast deliveries, by result.",
		}, []string{"result"}),
		breakerState: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "image_host_breaker_state",
			Help:      "Image host circuit breaker state (0 closed, 1 half-open, 2 open).",
		}, []string{"breaker"}),
	}
	m.breakerState.WithLabelValues("imgbb").Set(0)

	if g.ActiveSessions != nil {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wizard_sessions_active",
			Help:      "Users with an active wizard session.",
		}, g.ActiveSessions)
	}
	if g.ActiveLanes != nil {
		f.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sequencer_lanes_active",
			Help:      "Users with updates queued or in flight.",
		}, g.ActiveLanes)
	}
	return m
}

// ObserveHandled records one handled update. It matches router.HandledFunc.
func (m *Metrics) ObserveHandled(handler string, err error, took time.Duration) {
	m.handled.WithLabelValues(handler, logger.Status(err)).Inc()
	m.duration.WithLabelValues(handler).Observe(took.Seconds())
}

// ObserveReplies records the messages sent while handling one update.
func (m *Metrics) ObserveReplies(n int, keyboard bool) {
	if n <= 0 {
		return
	}
	label := "false"
	if keyboard {
		label = "true"
	}
	m.replies.WithLabelValues(label).Add(float64(n))
}

// ObserveBroadcast records the outcome of one broadcast.
func (m *Metrics) ObserveBroadcast(sent, failed int) {
	m.broadcasts.WithLabelValues("sent").Add(float64(sent))
	m.broadcasts.WithLabelValues("failed").Add(float64(failed))
}

// BreakerChanged records an image host breaker transition.
func (m *Metrics) BreakerChanged(_, to string) {
	v := 0.0
	switch to {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	m.breakerState.WithLabelValues("imgbb").Set(v)
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
