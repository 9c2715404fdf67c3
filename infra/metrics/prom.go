// Package metrics provides the sink implementations recording notification
// delivery to Prometheus and InfluxDB.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/skiptow/dispatch/core/metrics"
)

// PromSink records notification events in Prometheus metrics.
type PromSink struct {
	notifications *prometheus.CounterVec
	tokens        *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	sweeps        *prometheus.CounterVec
}

// NewPromSink registers notification metrics on the default Prometheus
// registerer. The Prometheus server is started separately.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notifications_total",
		Help: "Total number of notification fan-out attempts",
	}, []string{"kind", "delivered"})
	tokens := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_tokens_total",
		Help: "Total number of device tokens targeted by multicasts",
	}, []string{"kind"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "notification_latency_seconds",
		Help:    "Time to resolve tokens and complete the multicast call",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind", "delivered"})
	sweeps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sweep_documents_total",
		Help: "Documents affected by scheduled sweeps",
	}, []string{"sweep"})

	if err := reg.Register(notifications); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			notifications = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(tokens); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			tokens = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(latency); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			latency = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(sweeps); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			sweeps = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	return &PromSink{notifications: notifications, tokens: tokens, latency: latency, sweeps: sweeps}, nil
}

// RecordNotification increments the counters for each event.
func (s *PromSink) RecordNotification(events []coremetrics.NotificationEvent) error {
	for _, ev := range events {
		delivered := strconv.FormatBool(ev.Delivered)
		s.notifications.WithLabelValues(ev.Kind, delivered).Inc()
		s.tokens.WithLabelValues(ev.Kind).Add(float64(ev.Tokens))
		if ev.Latency > 0 {
			s.latency.WithLabelValues(ev.Kind, delivered).Observe(ev.Latency.Seconds())
		}
	}
	return nil
}

// RecordSweep adds the number of affected documents for the sweep.
func (s *PromSink) RecordSweep(ev coremetrics.SweepEvent) error {
	s.sweeps.WithLabelValues(ev.Sweep).Add(float64(ev.Affected))
	return nil
}
