// Package clock abstracts the time source so time-window arithmetic can be
// tested deterministically.
package clock

import "time"

// Clocker abstracts the time source so tests can control it.
type Clocker interface {
	Now() time.Time
}

// TimeClocker reads the real system clock.
type TimeClocker struct{}

// New returns the production clock.
func New() *TimeClocker {
	return &TimeClocker{}
}

// Now returns the current system time.
func (*TimeClocker) Now() time.Time {
	return time.Now()
}

// Static is a settable clock for tests.
type Static struct {
	Time time.Time
}

// NewStatic returns a clock frozen at t.
func NewStatic(t time.Time) *Static {
	return &Static{Time: t}
}

// Now returns the configured instant.
func (s *Static) Now() time.Time {
	return s.Time
}

// Advance moves the clock forward by d.
func (s *Static) Advance(d time.Duration) {
	s.Time = s.Time.Add(d)
}
