package core

import (
	"strconv"
	"time"
)

// Ref is an invoice reference period in the canonical "MMYYYY" form,
// e.g. "032024" for March 2024.
type Ref string

// ParseRef validates a "MMYYYY" period key.
func ParseRef(s string) (Ref, error) {
	if len(s) != 6 {
		return "", ErrInvalidRef
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", ErrInvalidRef
		}
	}
	month, _ := strconv.Atoi(s[:2])
	if month < 1 || month > 12 {
		return "", ErrInvalidRef
	}
	return Ref(s), nil
}

// RefOf returns the reference period containing t.
func RefOf(t time.Time) Ref {
	return Ref(t.Format("012006"))
}

// NewRef builds a reference from a month and year.
func NewRef(month, year int) Ref {
	return RefOf(time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
}

// Month returns the 1-based month of the reference.
func (r Ref) Month() int {
	m, _ := strconv.Atoi(string(r[:2]))
	return m
}

// Year returns the year of the reference.
func (r Ref) Year() int {
	y, _ := strconv.Atoi(string(r[2:]))
	return y
}

// Display renders the human form "MM/YYYY". Used at the boundary only.
func (r Ref) Display() string {
	return string(r[:2]) + "/" + string(r[2:])
}

// Next returns the following month's reference.
func (r Ref) Next() Ref {
	return RefOf(r.MonthStart().AddDate(0, 1, 0))
}

// MonthStart returns midnight UTC on the first day of the reference month.
func (r Ref) MonthStart() time.Time {
	return time.Date(r.Year(), time.Month(r.Month()), 1, 0, 0, 0, 0, time.UTC)
}

// MonthEnd returns midnight UTC on the first day of the following month.
// Month windows are half-open: [MonthStart, MonthEnd).
func (r Ref) MonthEnd() time.Time {
	return r.MonthStart().AddDate(0, 1, 0)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateClamped builds a date clamping day to the length of the month, so
// day 31 in February yields February 28/29 instead of rolling over.
func DateClamped(year int, month time.Month, day int) time.Time {
	// Normalize month first so callers may pass e.g. month 13.
	base := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	if last := DaysIn(base.Year(), base.Month()); day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(base.Year(), base.Month(), day, 0, 0, 0, 0, time.UTC)
}

// AddMonths advances t by n months keeping the day-of-month, clamped to the
// target month's length (Jan 31 + 1 month = Feb 28/29).
func AddMonths(t time.Time, n int) time.Time {
	return DateClamped(t.Year(), t.Month()+time.Month(n), t.Day())
}

// InvoicePeriod computes the billing window for a reference and a card's
// close day: (closeDay+1 of the previous month) .. (closeDay+1 of the
// reference month), both ends inclusive. Days past the end of a month are
// clamped to its last day.
func InvoicePeriod(r Ref, closeDay int) (from, to time.Time) {
	to = DateClamped(r.Year(), time.Month(r.Month()), closeDay+1)
	from = DateClamped(r.Year(), time.Month(r.Month())-1, closeDay+1)
	return from, to
}
