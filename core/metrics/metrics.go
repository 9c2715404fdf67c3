// Package metrics defines the sink interfaces used to record notification
// delivery for observability. Implementations live under infra/metrics.
package metrics

import "time"

// NotificationEvent describes one fan-out attempt for a logical
// notification.
type NotificationEvent struct {
	DispatchID string // correlates events of the same handler invocation
	Kind       string // notification kind, e.g. "new_request", "payment_status"
	Recipients int    // users the message was addressed to
	Tokens     int    // device tokens the multicast targeted
	Delivered  bool   // false when the sender call failed or no tokens resolved
	Error      string
	Latency    time.Duration
	Time       time.Time
}

// MetricsSink records notification events.
type MetricsSink interface {
	RecordNotification(events []NotificationEvent) error
}

// SweepEvent describes one run of a scheduled sweep.
type SweepEvent struct {
	Sweep    string
	Scanned  int
	Affected int
	Errors   int
	Time     time.Time
}

// SweepRecorder records scheduled sweep runs. Sinks may implement it in
// addition to MetricsSink.
type SweepRecorder interface {
	RecordSweep(ev SweepEvent) error
}

// NopSink implements MetricsSink and SweepRecorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordNotification([]NotificationEvent) error { return nil }

func (NopSink) RecordSweep(SweepEvent) error { return nil }

// Config defines settings for the metrics sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}
