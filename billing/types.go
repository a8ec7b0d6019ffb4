/*
Package billing is the subscription fee accrual and payment allocation engine.

PURPOSE:
  Across the academy platform the same computation recurs: translating a
  student's subscription terms (monthly fee, cycle length, join/churn dates)
  and an unordered history of cash payments into how much is owed or in
  credit, and which calendar month each payment belongs to for reporting.
  This package is the single canonical implementation of that computation.

KEY CONCEPTS IN THIS FILE (types.go):
  - Paise: An integer amount in the smallest currency unit
  - Payment: An immutable record of cash received
  - AccrualResult: The derived balance view (owed vs. credit)
  - SubscriberID: Type-safe subscriber identifier

DESIGN PRINCIPLES:
  1. Re-derivable: Every result is recomputed from (profile, payments, date).
     There is no stored mutable balance that can drift out of sync.
  2. Precision: Amounts are integer paise. Division only happens in
     reporting percentages, where decimal.Decimal keeps it exact.
  3. Purity: Accrue and Allocate do no I/O and hold no hidden state.
     Identical inputs always produce identical outputs.

SEE ALSO:
  - profile.go: Billing terms and their invariants
  - accrual.go: How much is owed as of a reference date
  - allocation.go: Which month each payment belongs to
  - clock.go: The overridable "as-of" date source
*/
package billing

import "sort"

// =============================================================================
// PAISE - Integer currency in the smallest unit
// =============================================================================

// Paise is a money amount in the smallest currency unit (paise, cents).
// Integer arithmetic keeps accrual and allocation numerically exact.
type Paise int64

func (p Paise) IsZero() bool     { return p == 0 }
func (p Paise) IsNegative() bool { return p < 0 }
func (p Paise) IsPositive() bool { return p > 0 }

// Neg returns the amount with its sign flipped.
func (p Paise) Neg() Paise { return -p }

// MaxPaise returns the larger of two amounts.
func MaxPaise(a, b Paise) Paise {
	if a > b {
		return a
	}
	return b
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type SubscriberID string
type PaymentID string
type PlanID string
type CenterID string

// =============================================================================
// PAYMENT - Immutable, append-only cash record
// =============================================================================

// PaymentMode is how the money arrived. The engine treats it as opaque;
// it only matters for the payment-mode breakdown report.
type PaymentMode string

const (
	ModeCash   PaymentMode = "cash"
	ModeUPI    PaymentMode = "upi"
	ModeCard   PaymentMode = "card"
	ModeBank   PaymentMode = "bank_transfer"
	ModeCheque PaymentMode = "cheque"
	ModeOther  PaymentMode = "other"
)

// Payment is one cash receipt against a subscriber. Payments are never
// edited after creation; corrections happen in the external payment store
// and the engine simply re-reads the updated list.
type Payment struct {
	ID           PaymentID
	SubscriberID SubscriberID
	Amount       Paise // always > 0
	PaidOn       Date
	Mode         PaymentMode
	Reference    string
	Notes        string
}

// SortPaymentsByDate orders payments ascending by payment date, in place.
// The sort is stable: same-day payments keep their insertion order, which
// keeps allocation deterministic for a fixed input list.
func SortPaymentsByDate(payments []Payment) {
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].PaidOn.Before(payments[j].PaidOn)
	})
}

// SumPayments totals a payment list.
func SumPayments(payments []Payment) Paise {
	var total Paise
	for _, p := range payments {
		total += p.Amount
	}
	return total
}

// =============================================================================
// ACCRUAL RESULT - Derived balance view, recomputed on every query
// =============================================================================

// AccrualResult is the answer to "where does this subscriber stand?" as of
// a reference date. WalletBalance = TotalPaid - FeesAccrued; exactly one of
// Outstanding and Credit is non-zero (or both are zero).
type AccrualResult struct {
	FeesAccrued   Paise
	TotalPaid     Paise
	WalletBalance Paise
	Outstanding   Paise
	Credit        Paise
}
