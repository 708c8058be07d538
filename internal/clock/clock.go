// Package clock abstracts wall-clock reads so overdue and days-late logic can
// be driven deterministically in tests.
package clock

import "time"

// Clock reports the current instant.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock in UTC.
type Real struct{}

// Now implements Clock.
func (Real) Now() time.Time { return time.Now().UTC() }

// Fixed always reports the same instant.
type Fixed time.Time

// Now implements Clock.
func (f Fixed) Now() time.Time { return time.Time(f).UTC() }

// At is shorthand for a Fixed clock on the given UTC date at noon.
func At(year int, month time.Month, day int) Fixed {
	return Fixed(time.Date(year, month, day, 12, 0, 0, 0, time.UTC))
}
