package scheduler

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock supplies wall-clock time and one-shot timers to the Monitor.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type libClock struct {
	c clock.Clock
}

// FromClock adapts a benbjohnson clock, real or *clock.Mock, to Clock.
func FromClock(c clock.Clock) Clock {
	return libClock{c: c}
}

// RealClock returns the wall clock.
func RealClock() Clock {
	return FromClock(clock.New())
}

func (l libClock) Now() time.Time { return l.c.Now() }

func (l libClock) AfterFunc(d time.Duration, f func()) Timer { return l.c.AfterFunc(d, f) }
