package mevo

import "time"

// Clock supplies the current monotonic instant (for exchange timeouts) and
// the current Unix epoch seconds (for the TIME_SYNC message). It is an
// external collaborator (spec §1); SystemClock is the default.
type Clock interface {
	Now() time.Time
	UnixSeconds() uint32
}

// SystemClock is the real wall-clock implementation.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) UnixSeconds() uint32 { return uint32(time.Now().Unix()) }
