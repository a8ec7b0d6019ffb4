/*
allocation.go - Which calendar month does each payment belong to?

PURPOSE:
  Payments are often late, early, or bundled: one cash payment in March
  may cover January and February arrears plus part of March. Allocate
  converts "payment received on date X" into "revenue recognized for
  month Y", which is what the accrual-basis revenue charts plot.

ALGORITHM (single pass over chronologically sorted payments):
  A month cursor starts at the join month and only ever moves forward.
  For each payment:
    a. Arrears catch-up: while the cursor is behind the payment's month
       and at least one monthly fee remains, fill the cursor month and
       advance. Back-billed months are filled before the payment's own.
    b. Forward fill: while at least one monthly fee remains, fill the
       cursor month and advance. One large payment prepays future months.
    c. Remainder: anything left lands on the cursor month WITHOUT
       advancing it; later payments top that month up first.
  The cursor carries across payments - state is carried, not reset.

GUARANTEES:
  - Conservation: the total allocated equals the total paid, exactly.
    Remainders carry forward exactly once, never duplicated.
  - Deterministic for a fixed, fully ordered payment list. Same-date
    payments are tie-broken by insertion order (stable sort).
  - The result spans every month from first to last touched, months with
    no allocation filled with zero, so charts stay contiguous.

EDGE CASES:
  - No payments: empty mapping.
  - Zero monthly fee: forward fill would never terminate, so a zero fee
    cannot forward-fill. The whole payment lands on its own month and
    the cursor advances past it.
*/
package billing

// =============================================================================
// MONTHLY ALLOCATION - Ordered month-keyed series
// =============================================================================

// MonthlyAllocation maps calendar months to allocated revenue, in
// chronological order, contiguous from the first to the last month with
// any allocation.
type MonthlyAllocation struct {
	months  []MonthKey
	amounts map[MonthKey]Paise
}

// Months returns the keys in chronological order.
func (a MonthlyAllocation) Months() []MonthKey { return a.months }

// Get returns the amount allocated to a month (zero for untouched months).
func (a MonthlyAllocation) Get(k MonthKey) Paise { return a.amounts[k] }

// Total sums all allocated amounts. By conservation this equals the sum
// of the payment amounts the allocation was computed from.
func (a MonthlyAllocation) Total() Paise {
	var total Paise
	for _, k := range a.months {
		total += a.amounts[k]
	}
	return total
}

func (a MonthlyAllocation) Len() int      { return len(a.months) }
func (a MonthlyAllocation) IsEmpty() bool { return len(a.months) == 0 }

// =============================================================================
// ALLOCATION ENGINE
// =============================================================================

// Allocate assigns each payment to calendar billing months. The input
// slice is not modified; payments are copied and stably sorted by date
// before the pass.
//
// A subscriber without a join date cannot anchor the month cursor, so
// allocation fails with an *IncompleteDataError. An invalid profile
// fails with a *ValidationError.
func Allocate(profile BillingProfile, payments []Payment) (MonthlyAllocation, error) {
	if err := profile.Validate(); err != nil {
		return MonthlyAllocation{}, err
	}
	if !profile.Enrolled() {
		return MonthlyAllocation{}, &IncompleteDataError{
			SubscriberID: profile.SubscriberID,
			Missing:      "join date",
		}
	}
	if len(payments) == 0 {
		return MonthlyAllocation{}, nil
	}

	ordered := make([]Payment, len(payments))
	copy(ordered, payments)
	SortPaymentsByDate(ordered)

	fee := profile.MonthlyFee
	cursor := profile.JoinDate.FirstOfMonth()
	allocated := map[MonthKey]Paise{}
	first, last := Date{}, Date{}

	touch := func(month Date, amount Paise) {
		allocated[MonthKeyOf(month)] += amount
		if first.IsZero() || month.Before(first) {
			first = month
		}
		if last.IsZero() || month.After(last) {
			last = month
		}
	}

	for _, p := range ordered {
		paymentMonth := p.PaidOn.FirstOfMonth()
		remaining := p.Amount

		if !fee.IsPositive() {
			// Zero fee cannot forward-fill; the payment belongs wholly
			// to its own month and the cursor moves past it.
			touch(paymentMonth, remaining)
			cursor = paymentMonth.AddMonths(1)
			continue
		}

		// Arrears catch-up: back-billed months first.
		for cursor.Before(paymentMonth) && remaining >= fee {
			touch(cursor, fee)
			remaining -= fee
			cursor = cursor.AddMonths(1)
		}

		// Forward fill: whole months, possibly past the payment month.
		for remaining >= fee {
			touch(cursor, fee)
			remaining -= fee
			cursor = cursor.AddMonths(1)
		}

		// Remainder stays on the cursor month; the cursor does not
		// advance, so the next payment tops this month up first.
		if remaining.IsPositive() {
			touch(cursor, remaining)
		}
	}

	return buildSeries(first, last, allocated), nil
}

// buildSeries produces the contiguous, chronologically ordered series
// between first and last inclusive, zero-filling untouched months.
func buildSeries(first, last Date, allocated map[MonthKey]Paise) MonthlyAllocation {
	var months []MonthKey
	amounts := map[MonthKey]Paise{}
	for m := first; m.BeforeOrEqual(last); m = m.AddMonths(1) {
		k := MonthKeyOf(m)
		months = append(months, k)
		amounts[k] = allocated[k]
	}
	return MonthlyAllocation{months: months, amounts: amounts}
}
