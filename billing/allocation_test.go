/*
allocation_test.go - Executable specification of the monthly allocation engine

ORGANIZATION:
  1. Arrears catch-up and prepayment
  2. Partial months and remainder carry
  3. Conservation and determinism guarantees
  4. Edge cases (no payments, zero fee, missing join date)
*/
package billing_test

import (
	"errors"
	"testing"
	"time"

	"github.com/academyhq/fee-engine/billing"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func pay(amount billing.Paise, y int, m time.Month, d int) billing.Payment {
	return billing.Payment{
		SubscriberID: "sub-1",
		Amount:       amount,
		PaidOn:       billing.NewDate(y, m, d),
		Mode:         billing.ModeCash,
	}
}

func mustAllocate(t *testing.T, p billing.BillingProfile, payments []billing.Payment) billing.MonthlyAllocation {
	t.Helper()
	allocation, err := billing.Allocate(p, payments)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return allocation
}

func checkMonth(t *testing.T, a billing.MonthlyAllocation, key string, want billing.Paise) {
	t.Helper()
	if got := a.Get(billing.MonthKey(key)); got != want {
		t.Errorf("month %s: expected %d, got %d", key, want, got)
	}
}

// =============================================================================
// ARREARS CATCH-UP AND PREPAYMENT
// =============================================================================

func TestAllocate_LatePaymentFillsArrearsFirst(t *testing.T) {
	// GIVEN: Monthly fee 1000, joined January
	// WHEN: The first payment of 2500 arrives in March
	// THEN: January and February are back-filled whole, the remainder
	//       lands on March, and the cursor waits there for more funds

	profile := monthly(billing.NewDate(2024, time.January, 15), 1000)
	allocation := mustAllocate(t, profile, []billing.Payment{
		pay(2500, 2024, time.March, 5),
	})

	checkMonth(t, allocation, "2024-01", 1000)
	checkMonth(t, allocation, "2024-02", 1000)
	checkMonth(t, allocation, "2024-03", 500)
	if allocation.Len() != 3 {
		t.Errorf("expected a 3-month span, got %d", allocation.Len())
	}
}

func TestAllocate_OverpaymentPrepaysForward(t *testing.T) {
	// GIVEN: Monthly fee 1000
	// WHEN: 5000 is paid on day one
	// THEN: Five consecutive months starting at the join month get 1000 each

	profile := monthly(billing.NewDate(2024, time.January, 15), 1000)
	allocation := mustAllocate(t, profile, []billing.Payment{
		pay(5000, 2024, time.January, 15),
	})

	for _, key := range []string{"2024-01", "2024-02", "2024-03", "2024-04", "2024-05"} {
		checkMonth(t, allocation, key, 1000)
	}
	if allocation.Len() != 5 {
		t.Errorf("expected a 5-month span, got %d", allocation.Len())
	}
}

func TestAllocate_CursorCarriesAcrossPayments(t *testing.T) {
	// GIVEN: A prepayment covering Jan-Mar
	// WHEN: The next payment arrives in February
	// THEN: It continues at April - the cursor is carried, not reset

	profile := monthly(billing.NewDate(2024, time.January, 1), 1000)
	allocation := mustAllocate(t, profile, []billing.Payment{
		pay(3000, 2024, time.January, 2),
		pay(1000, 2024, time.February, 10),
	})

	checkMonth(t, allocation, "2024-03", 1000)
	checkMonth(t, allocation, "2024-04", 1000)
}

// =============================================================================
// PARTIAL MONTHS AND REMAINDER CARRY
// =============================================================================

func TestAllocate_PartialMonthHoldsCursor(t *testing.T) {
	// GIVEN: A 400 payment against a 1000 fee
	// WHEN: Another 600 arrives next month
	// THEN: The join month is completed (400 + 600) before anything
	//       lands on the second month

	profile := monthly(billing.NewDate(2024, time.January, 1), 1000)
	allocation := mustAllocate(t, profile, []billing.Payment{
		pay(400, 2024, time.January, 5),
		pay(600, 2024, time.February, 5),
	})

	// 400 holds the cursor at January; February's 600 is below the fee,
	// so it also lands on the cursor month.
	checkMonth(t, allocation, "2024-01", 1000)
	if allocation.Total() != 1000 {
		t.Errorf("expected 1000 total, got %d", allocation.Total())
	}
}

func TestAllocate_RemainderCarriedExactlyOnce(t *testing.T) {
	// GIVEN: 1500 in January (fills Jan, 500 remainder on Feb),
	//        then 1500 in March
	// WHEN: The second payment catches up
	// THEN: February receives a whole fee on top of its remainder and
	//       the leftover lands on March; nothing is double-counted

	profile := monthly(billing.NewDate(2024, time.January, 1), 1000)
	allocation := mustAllocate(t, profile, []billing.Payment{
		pay(1500, 2024, time.January, 3),
		pay(1500, 2024, time.March, 3),
	})

	checkMonth(t, allocation, "2024-01", 1000)
	checkMonth(t, allocation, "2024-02", 1500)
	checkMonth(t, allocation, "2024-03", 500)
	if allocation.Total() != 3000 {
		t.Errorf("conservation broken: expected 3000, got %d", allocation.Total())
	}
}

// =============================================================================
// CONSERVATION AND DETERMINISM
// =============================================================================

func TestAllocate_ConservationAcrossShapes(t *testing.T) {
	// THEN: For any payment list, the allocated total equals the paid
	//       total exactly - no money created or dropped.

	profile := monthly(billing.NewDate(2024, time.January, 10), 1000)
	cases := [][]billing.Payment{
		{pay(1, 2024, time.January, 10)},
		{pay(999, 2024, time.February, 1), pay(1, 2024, time.February, 2)},
		{pay(2500, 2024, time.March, 5), pay(4999, 2024, time.March, 5), pay(1, 2024, time.December, 31)},
		{pay(100000, 2024, time.June, 1)},
	}

	for _, payments := range cases {
		allocation := mustAllocate(t, profile, payments)
		if allocation.Total() != billing.SumPayments(payments) {
			t.Errorf("allocated %d != paid %d for %d payments",
				allocation.Total(), billing.SumPayments(payments), len(payments))
		}
	}
}

func TestAllocate_DeterministicAndPure(t *testing.T) {
	profile := monthly(billing.NewDate(2024, time.January, 1), 1000)
	payments := []billing.Payment{
		pay(2500, 2024, time.March, 5),
		pay(700, 2024, time.January, 20),
	}

	first := mustAllocate(t, profile, payments)
	second := mustAllocate(t, profile, payments)

	if first.Len() != second.Len() || first.Total() != second.Total() {
		t.Fatalf("re-running changed the result")
	}
	for _, k := range first.Months() {
		if first.Get(k) != second.Get(k) {
			t.Errorf("month %s differs between runs", k)
		}
	}

	// Input order must be untouched: Allocate sorts a copy.
	if !payments[0].PaidOn.Equal(billing.NewDate(2024, time.March, 5)) {
		t.Errorf("input slice was reordered")
	}
}

func TestAllocate_UnsortedInputHandled(t *testing.T) {
	// GIVEN: Payments supplied out of date order
	// THEN: The result matches the chronologically sorted run

	profile := monthly(billing.NewDate(2024, time.January, 1), 1000)
	shuffled := []billing.Payment{
		pay(1000, 2024, time.March, 1),
		pay(1000, 2024, time.January, 1),
		pay(1000, 2024, time.February, 1),
	}

	allocation := mustAllocate(t, profile, shuffled)
	checkMonth(t, allocation, "2024-01", 1000)
	checkMonth(t, allocation, "2024-02", 1000)
	checkMonth(t, allocation, "2024-03", 1000)
}

// =============================================================================
// EDGE CASES
// =============================================================================

func TestAllocate_NoPayments_EmptyMapping(t *testing.T) {
	profile := monthly(billing.NewDate(2024, time.January, 1), 1000)
	allocation := mustAllocate(t, profile, nil)

	if !allocation.IsEmpty() {
		t.Errorf("expected empty allocation, got %d months", allocation.Len())
	}
}

func TestAllocate_ZeroFeeCannotForwardFill(t *testing.T) {
	// GIVEN: A free membership (fee 0) with sponsorship payments anyway
	// THEN: Each payment lands wholly on its own month; untouched months
	//       in between are zero-filled so the series stays contiguous

	profile := billing.BillingProfile{
		SubscriberID: "sub-free",
		JoinDate:     billing.NewDate(2024, time.January, 1),
		MonthlyFee:   0,
		CycleMonths:  1,
		Active:       true,
	}
	allocation := mustAllocate(t, profile, []billing.Payment{
		pay(500, 2024, time.January, 10),
		pay(700, 2024, time.May, 10),
	})

	checkMonth(t, allocation, "2024-01", 500)
	checkMonth(t, allocation, "2024-02", 0)
	checkMonth(t, allocation, "2024-03", 0)
	checkMonth(t, allocation, "2024-04", 0)
	checkMonth(t, allocation, "2024-05", 700)
	if allocation.Len() != 5 {
		t.Errorf("expected contiguous 5-month span, got %d", allocation.Len())
	}
}

func TestAllocate_MissingJoinDate_IncompleteData(t *testing.T) {
	profile := billing.BillingProfile{SubscriberID: "sub-x", MonthlyFee: 1000, CycleMonths: 1}
	_, err := billing.Allocate(profile, []billing.Payment{pay(1000, 2024, time.January, 1)})

	if !errors.Is(err, billing.ErrIncompleteData) {
		t.Errorf("expected ErrIncompleteData, got %v", err)
	}
}

// =============================================================================
// CROSS-ALGORITHM AGREEMENT
// =============================================================================

func TestAllocate_AgreesWithAccrualWhenFullyPaid(t *testing.T) {
	// GIVEN: A subscriber who pays exactly one fee each month
	// THEN: The allocation total equals the fees Accrue reports as of
	//       the last paid month - the two views of the same terms agree

	profile := monthly(billing.NewDate(2024, time.January, 15), 1000)
	payments := []billing.Payment{
		pay(1000, 2024, time.January, 15),
		pay(1000, 2024, time.February, 12),
		pay(1000, 2024, time.March, 14),
	}

	allocation := mustAllocate(t, profile, payments)
	result := mustAccrue(t, profile, billing.SumPayments(payments), billing.NewDate(2024, time.March, 20))

	if allocation.Total() != result.FeesAccrued {
		t.Errorf("allocation total %d != fees accrued %d", allocation.Total(), result.FeesAccrued)
	}
	if result.Outstanding != 0 {
		t.Errorf("fully paid subscriber shows outstanding %d", result.Outstanding)
	}
}
