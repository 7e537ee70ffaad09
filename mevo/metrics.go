package mevo

import "time"

// MetricsRecorder is an optional observability collaborator (SPEC_FULL.md
// §4.10). A Client constructed without one performs no metrics work; every
// call site nil-checks before recording.
type MetricsRecorder interface {
	ObserveHandshakePhase(phase string, d time.Duration)
	ObserveKeepaliveLatency(bus string, d time.Duration)
	IncShots()
	IncFramingError(kind string)
	SetArmed(armed bool)
}
