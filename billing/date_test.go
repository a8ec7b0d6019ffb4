package billing_test

import (
	"testing"
	"time"

	"github.com/academyhq/fee-engine/billing"
)

func TestMonthsBetween_IgnoresDayOfMonth(t *testing.T) {
	cases := []struct {
		from, to billing.Date
		want     int
	}{
		{billing.NewDate(2024, time.January, 15), billing.NewDate(2024, time.January, 20), 0},
		{billing.NewDate(2024, time.January, 31), billing.NewDate(2024, time.February, 1), 1},
		{billing.NewDate(2024, time.January, 15), billing.NewDate(2024, time.March, 5), 2},
		{billing.NewDate(2023, time.November, 1), billing.NewDate(2024, time.February, 1), 3},
		{billing.NewDate(2024, time.March, 1), billing.NewDate(2024, time.January, 1), -2},
	}
	for _, tc := range cases {
		if got := billing.MonthsBetween(tc.from, tc.to); got != tc.want {
			t.Errorf("MonthsBetween(%s, %s) = %d, want %d", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestMonthKey_SortsChronologically(t *testing.T) {
	// String comparison of "YYYY-MM" keys must match date order,
	// including across year boundaries.
	dec := billing.MonthKeyOf(billing.NewDate(2023, time.December, 31))
	jan := billing.MonthKeyOf(billing.NewDate(2024, time.January, 1))

	if !dec.Before(jan) {
		t.Errorf("expected %s < %s", dec, jan)
	}
}

func TestMonthKey_RoundTrip(t *testing.T) {
	k := billing.MonthKeyOf(billing.NewDate(2024, time.July, 23))
	if k != "2024-07" {
		t.Fatalf("unexpected key %s", k)
	}
	d, err := k.Date()
	if err != nil {
		t.Fatal(err)
	}
	if !d.Equal(billing.NewDate(2024, time.July, 1)) {
		t.Errorf("expected first of month, got %s", d)
	}
}

func TestParseDate(t *testing.T) {
	d, err := billing.ParseDate("2024-02-29")
	if err != nil {
		t.Fatal(err)
	}
	if d.Year() != 2024 || d.Month() != time.February || d.Day() != 29 {
		t.Errorf("parsed wrong date: %s", d)
	}

	if _, err := billing.ParseDate("29/02/2024"); err == nil {
		t.Error("expected error for non-ISO format")
	}
}

func TestDate_FirstOfMonthAndAddMonths(t *testing.T) {
	d := billing.NewDate(2024, time.January, 31)
	if got := d.FirstOfMonth(); !got.Equal(billing.NewDate(2024, time.January, 1)) {
		t.Errorf("FirstOfMonth: got %s", got)
	}
	// Month stepping always happens from the first of a month in the
	// allocation cursor, so no end-of-month normalization surprises.
	if got := d.FirstOfMonth().AddMonths(1); !got.Equal(billing.NewDate(2024, time.February, 1)) {
		t.Errorf("AddMonths: got %s", got)
	}
}
