package billing_test

import (
	"testing"
	"time"

	"github.com/academyhq/fee-engine/billing"
)

func TestSystemClock_OverrideLifecycle(t *testing.T) {
	// GIVEN: A fresh system clock
	// WHEN: Pinning it to a historical date, then clearing the override
	// THEN: Today() follows the override while set, wall clock otherwise

	clock := billing.NewSystemClock()
	if _, overridden := clock.Overridden(); overridden {
		t.Fatal("fresh clock should not be overridden")
	}

	pinned := billing.NewDate(2024, time.March, 1)
	clock.SetOverride(pinned)

	if got := clock.Today(); !got.Equal(pinned) {
		t.Errorf("expected pinned date %s, got %s", pinned, got)
	}
	if d, overridden := clock.Overridden(); !overridden || !d.Equal(pinned) {
		t.Errorf("Overridden() should report the pinned date")
	}

	clock.ClearOverride()
	if _, overridden := clock.Overridden(); overridden {
		t.Error("override should be cleared")
	}
	if got, today := clock.Today(), billing.DateOf(time.Now().UTC()); !got.Equal(today) {
		t.Errorf("expected wall-clock date %s, got %s", today, got)
	}
}

func TestFixedClock_AlwaysSameDate(t *testing.T) {
	day := billing.NewDate(2024, time.June, 15)
	clock := billing.FixedClock{Day: day}

	if !clock.Today().Equal(day) || !clock.Today().Equal(day) {
		t.Error("fixed clock drifted")
	}
}

func TestSystemClock_ConcurrentReads(t *testing.T) {
	// The clock is the one shared resource; readers and the admin
	// override must not race.
	clock := billing.NewSystemClock()
	done := make(chan struct{})

	go func() {
		for i := 0; i < 100; i++ {
			clock.SetOverride(billing.NewDate(2024, time.January, 1+i%28))
			clock.ClearOverride()
		}
		close(done)
	}()
	for i := 0; i < 100; i++ {
		_ = clock.Today()
	}
	<-done
}
