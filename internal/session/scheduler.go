package session

import "time"

// Timer is a handle to a scheduled callback. Stop reports whether the call
// prevented the callback from running; stopping a fired or already stopped
// timer is harmless.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d elapses.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// WallClock schedules callbacks on real time.
var WallClock Scheduler = wallClock{}
