package routing

import "time"

// Recorder receives routing measurements, typically a metrics collector.
// Labels are plain strings so implementations need not import this package.
type Recorder interface {
	RecordAttempt(channel, outcome, kind string, latency time.Duration)
	RecordProbe(channel string, healthy bool, reason string, latency time.Duration)
	RecordRoute(outcome string, attempts int, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordAttempt(string, string, string, time.Duration) {}
func (nopRecorder) RecordProbe(string, bool, string, time.Duration)     {}
func (nopRecorder) RecordRoute(string, int, time.Duration)              {}
