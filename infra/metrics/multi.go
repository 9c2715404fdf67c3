package metrics

import coremetrics "github.com/skiptow/dispatch/core/metrics"

// MultiSink fans notification events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordNotification forwards the events to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordNotification(events []coremetrics.NotificationEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordNotification(events); err != nil {
			return err
		}
	}
	return nil
}

// RecordSweep forwards sweep events to the sinks that support them.
func (m *MultiSink) RecordSweep(ev coremetrics.SweepEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.SweepRecorder); ok {
			if err := rec.RecordSweep(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
