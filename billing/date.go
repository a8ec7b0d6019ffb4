package billing

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE - Day-granularity point in time (UTC, midnight-normalized)
// =============================================================================

// Date is a calendar day. The engine never cares about time-of-day: fees
// accrue per month and payments belong to the day they were received, so
// every Date is normalized to midnight UTC.
type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary timestamp to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate parses "YYYY-MM-DD".
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.Time.Before(other.Time) }
func (d Date) After(other Date) bool         { return d.Time.After(other.Time) }
func (d Date) Equal(other Date) bool         { return d.Time.Equal(other.Time) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d.Time.IsZero() }

// Min returns the earlier of the two dates.
func (d Date) Min(other Date) Date {
	if other.Before(d) {
		return other
	}
	return d
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.Time.AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.Time.AddDate(0, n, 0)) }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }

// FirstOfMonth returns the first day of the date's calendar month.
func (d Date) FirstOfMonth() Date { return NewDate(d.Year(), d.Month(), 1) }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// =============================================================================
// MONTH KEY - "YYYY-MM" identifier for a calendar billing month
// =============================================================================

// MonthKey identifies a calendar month for revenue-recognition reporting.
// The string form sorts chronologically, so keys can be compared directly.
type MonthKey string

func MonthKeyOf(d Date) MonthKey { return MonthKey(d.Time.Format("2006-01")) }

// Date returns the first day of the month the key names.
func (k MonthKey) Date() (Date, error) {
	t, err := time.Parse("2006-01", string(k))
	if err != nil {
		return Date{}, fmt.Errorf("invalid month key %q: %w", k, err)
	}
	return DateOf(t), nil
}

func (k MonthKey) Before(other MonthKey) bool { return k < other }

// MonthsBetween returns the whole calendar months from one date's month to
// another's, ignoring the day component. February 28 to March 1 is one month.
func MonthsBetween(from, to Date) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
