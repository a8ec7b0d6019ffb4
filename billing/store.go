/*
store.go - External collaborator interfaces

PURPOSE:
  The engine reads billing profiles and payment histories; it never
  writes them. These interfaces are the boundary to the subscriber
  directory and the payment store, whatever their transport or storage.

IMPLEMENTATIONS:
  - store/sqlite: production store (subscribers, payments, plans)
  - billing/store: in-memory store for tests and demo seeding

COHORT FILTERS:
  Reporting entry points take a CohortFilter scoping the run to a set of
  centers, a payment date range, and a payment-mode subset. Access
  control is the caller's job: a coach's handler pre-filters the cohort
  to the centers they are assigned to before invoking a report.
*/
package billing

import "context"

// =============================================================================
// COHORT FILTER
// =============================================================================

// CohortFilter scopes a reporting run. Zero-value fields mean "no
// restriction".
type CohortFilter struct {
	CenterIDs []CenterID
	From      *Date // inclusive lower bound on payment date
	To        *Date // inclusive upper bound on payment date
	Modes     []PaymentMode
}

// MatchesPayment reports whether a payment passes the date and mode
// restrictions.
func (f CohortFilter) MatchesPayment(p Payment) bool {
	if f.From != nil && p.PaidOn.Before(*f.From) {
		return false
	}
	if f.To != nil && p.PaidOn.After(*f.To) {
		return false
	}
	if len(f.Modes) > 0 {
		found := false
		for _, m := range f.Modes {
			if p.Mode == m {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// FilterPayments returns the payments passing MatchesPayment, preserving
// order.
func (f CohortFilter) FilterPayments(payments []Payment) []Payment {
	var out []Payment
	for _, p := range payments {
		if f.MatchesPayment(p) {
			out = append(out, p)
		}
	}
	return out
}

// =============================================================================
// DIRECTORY & PAYMENT SOURCE - Read-only views the engine consumes
// =============================================================================

// Directory resolves subscribers and their billing terms.
type Directory interface {
	// GetBillingProfile returns the billing terms for one subscriber.
	GetBillingProfile(ctx context.Context, id SubscriberID) (BillingProfile, error)

	// ListSubscribers returns the cohort members matching the filter's
	// center restriction, in a stable order.
	ListSubscribers(ctx context.Context, filter CohortFilter) ([]SubscriberID, error)
}

// PaymentSource lists a subscriber's payment history. The engine only
// ever reads; corrections happen upstream and are picked up on re-read.
type PaymentSource interface {
	// ListPayments returns all payments for a subscriber, ascending by
	// payment date with insertion order breaking ties.
	ListPayments(ctx context.Context, id SubscriberID) ([]Payment, error)
}
