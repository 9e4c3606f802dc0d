package clock

import "time"

// Clock supplies the current instant. The quiz engine never calls time.Now
// directly; every deadline predicate takes a Clock so boundary behavior can be
// pinned in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

// Fixed is a Clock frozen at a settable instant.
type Fixed struct {
	T time.Time
}

func (f *Fixed) Now() time.Time { return f.T }

// Advance moves the fixed clock forward by d.
func (f *Fixed) Advance(d time.Duration) { f.T = f.T.Add(d) }

// At returns a Fixed clock set to t.
func At(t time.Time) *Fixed { return &Fixed{T: t} }
