package ratelimit

import "time"

// Clock supplies the current time. Refill timing depends on wall-clock
// elapsed time, so the limiter takes a Clock instead of calling time.Now
// directly; tests advance a fake clock deterministically.
type Clock interface {
	Now() time.Time
}

// systemClock is the production Clock backed by time.Now.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock { return systemClock{} }
