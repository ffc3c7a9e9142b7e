// Package archonclock provides the injectable time seam used throughout
// cl-hive-archon so that deadline and retry logic is deterministically
// testable.
package archonclock

import (
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
)

// Clock returns the current time as unix seconds. The Service threads this
// through every call rather than reading wall time inline.
type Clock func() int64

// Wall is the default Clock, backed by wall-clock time.
func Wall() int64 {
	return time.Now().Unix()
}

// FromBenbjohnsonClock adapts a github.com/benbjohnson/clock.Clock (used
// elsewhere in a host binary for timers/tickers) into the narrow Clock seam
// the Service needs.
func FromBenbjohnsonClock(c clock.Clock) Clock {
	return func() int64 {
		return c.Now().Unix()
	}
}

// Fake is a manually advanceable Clock for tests.
type Fake struct {
	seconds atomic.Int64
}

// NewFake returns a Fake clock seeded at the given unix-seconds value.
func NewFake(seedSeconds int64) *Fake {
	f := &Fake{}
	f.seconds.Store(seedSeconds)
	return f
}

// Now implements Clock.
func (f *Fake) Now() int64 {
	return f.seconds.Load()
}

// Set pins the clock to an exact unix-seconds value.
func (f *Fake) Set(seconds int64) {
	f.seconds.Store(seconds)
}

// Advance moves the clock forward by d, returning the new value.
func (f *Fake) Advance(d time.Duration) int64 {
	return f.seconds.Add(int64(d / time.Second))
}
