package adapter

import "time"

// Clock abstracts wall-clock reads so expiry stacking is testable without
// time flakiness.
type Clock interface {
	Now() time.Time
}

// RealClock is the production Clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
