/*
profile.go - Billing terms for one subscriber

PURPOSE:
  A BillingProfile is the immutable value describing a subscriber's
  subscription terms: when they joined, when (if ever) they churned, the
  monthly fee, and how many months one billing cycle spans.

INVARIANTS:
  - CycleMonths >= 1
  - MonthlyFee >= 0
  - ChurnDate, when set, >= JoinDate

  Validate() enforces these and names the violated rule. The engine fails
  fast on an invalid profile rather than silently coercing it; at the
  cohort level the offending subscriber is excluded and reported, never
  dropped without trace.

LIFECYCLE:
  Created at enrollment; ChurnDate is set once, at cancellation; otherwise
  immutable. The engine treats the profile as a value, not an entity - any
  "field may or may not exist" ambiguity belongs to the data-migration
  boundary, not here.
*/
package billing

// BillingProfile holds one subscriber's subscription terms.
//
// MonthlyFee is the per-month rate in paise. The amount due per cycle is
// MonthlyFee * CycleMonths (a quarterly plan at fee 1000 bills 3000 per
// cycle).
type BillingProfile struct {
	SubscriberID SubscriberID
	JoinDate     Date
	ChurnDate    *Date // nil = still subscribed
	MonthlyFee   Paise
	CycleMonths  int
	Active       bool
}

// Enrolled reports whether the subscriber has a join date. Accrual before
// enrollment is undefined; un-enrolled subscribers contribute zero accrual.
func (p BillingProfile) Enrolled() bool { return !p.JoinDate.IsZero() }

// Churned reports whether a churn date has been set.
func (p BillingProfile) Churned() bool { return p.ChurnDate != nil }

// Validate checks the profile invariants, returning a *ValidationError
// naming the violated rule, or nil.
func (p BillingProfile) Validate() error {
	if p.CycleMonths < 1 {
		return &ValidationError{
			SubscriberID: p.SubscriberID,
			Field:        "cycle_months",
			Rule:         "cycle length must be at least one month",
		}
	}
	if p.MonthlyFee.IsNegative() {
		return &ValidationError{
			SubscriberID: p.SubscriberID,
			Field:        "monthly_fee",
			Rule:         "fee must not be negative",
		}
	}
	if p.ChurnDate != nil && p.ChurnDate.Before(p.JoinDate) {
		return &ValidationError{
			SubscriberID: p.SubscriberID,
			Field:        "churn_date",
			Rule:         "churn date must not precede join date",
		}
	}
	return nil
}

// CutoffDate returns the accrual cutoff for a given reporting date: the
// earlier of today and the churn date. No fees accrue past churn.
func (p BillingProfile) CutoffDate(today Date) Date {
	if p.ChurnDate != nil {
		return today.Min(*p.ChurnDate)
	}
	return today
}
