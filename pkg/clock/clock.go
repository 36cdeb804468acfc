// Package clock provides an injectable time source so expiry and escalation
// behavior can be tested deterministically.
package clock

import "time"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock in UTC.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now().UTC()
}

// Fixed always returns the same instant until advanced. Not safe for
// concurrent mutation; intended for tests.
type Fixed struct {
	current time.Time
}

// NewFixed creates a fixed clock at the given instant.
func NewFixed(at time.Time) *Fixed {
	return &Fixed{current: at}
}

func (f *Fixed) Now() time.Time {
	return f.current
}

// Advance moves the clock forward by d.
func (f *Fixed) Advance(d time.Duration) {
	f.current = f.current.Add(d)
}

// Set moves the clock to the given instant.
func (f *Fixed) Set(at time.Time) {
	f.current = at
}
