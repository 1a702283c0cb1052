package meds

import "time"

// Clock is the injectable time source. Production code uses SystemClock;
// tests substitute a fixed clock to simulate time passage deterministically.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns a Clock backed by the wall clock.
func SystemClock() Clock { return systemClock{} }
