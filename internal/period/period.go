// Package period computes the calendar windows the ledger is reconciled
// against: billing months, fiscal years and installment due dates.
package period

import (
	"fmt"
	"time"
)

// Window is an inclusive [From, To] range of instants.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// Month returns the window covering the whole calendar month in UTC.
func Month(year int, month time.Month) Window {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return Window{From: from, To: to}
}

// MonthOf returns the calendar month containing t.
func MonthOf(t time.Time) Window {
	t = t.UTC()
	return Month(t.Year(), t.Month())
}

// Year returns the window covering the whole calendar year in UTC.
func Year(year int) Window {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 999999999, time.UTC)
	return Window{From: from, To: to}
}

// YearOf returns the calendar year containing t.
func YearOf(t time.Time) Window {
	return Year(t.UTC().Year())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateClamped builds a UTC date, clamping day to the last valid day of the month.
func DateClamped(year int, month time.Month, day int) time.Time {
	if day < 1 {
		day = 1
	}
	if last := DaysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// AddMonths moves start forward n calendar months keeping start's day of
// month, clamped to the end of shorter months (Jan 31 + 1 = Feb 28/29).
// The day is always taken from start, so Jan 31 + 2 is Mar 31.
func AddMonths(start time.Time, n int) time.Time {
	start = start.UTC()
	firstOfTarget := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	d := DateClamped(firstOfTarget.Year(), firstOfTarget.Month(), start.Day())
	return d.Add(time.Duration(start.Hour())*time.Hour +
		time.Duration(start.Minute())*time.Minute +
		time.Duration(start.Second())*time.Second)
}

// MonthKey formats the month containing t as "YYYY-MM".
func MonthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}

// YearKey formats the year containing t as "YYYY".
func YearKey(t time.Time) string {
	return t.UTC().Format("2006")
}

// ParseMonthKey parses "YYYY-MM" into its month window.
func ParseMonthKey(key string) (Window, error) {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return Window{}, fmt.Errorf("invalid period %q: expected YYYY-MM", key)
	}
	return Month(t.Year(), t.Month()), nil
}

// DaysBetween returns the whole days elapsed from since to now, floored.
// It is zero or negative when now is not after since.
func DaysBetween(since, now time.Time) int {
	d := now.Sub(since)
	days := int(d / (24 * time.Hour))
	if d < 0 && d%(24*time.Hour) != 0 {
		days--
	}
	return days
}
