/*
Package report composes per-subscriber engine runs into cohort-level views.

PURPOSE:
  Dashboards need "how is this center doing?", not "how is this student
  doing?". This package fans the pure billing computations out across a
  cohort and merges the results: summary totals, cash- and accrual-basis
  revenue series, and a payment-mode breakdown.

CONCURRENCY:
  Each subscriber's computation touches only its own inputs and produces
  an independent output, so the fan-out needs no locking beyond the merge.
  The merge is a commutative, associative sum - safe in any order. The
  clock is read ONCE per run and the same date reused for every
  subscriber, so a report is a consistent snapshot.

FAILURE SEMANTICS:
  A subscriber with an invalid or missing billing profile is excluded
  from accrual-basis figures but still counted in cash-basis sums, and
  always reported in the Skipped list for reconciliation. One bad record
  never blanks a whole report; only an empty cohort or a store failure
  for the cohort listing itself is a hard error.
*/
package report

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/academyhq/fee-engine/billing"
)

const defaultWorkers = 8

// =============================================================================
// REPORTER
// =============================================================================

// Reporter runs cohort-level reports against a directory and payment
// source. Workers bounds the per-subscriber fan-out; zero means the
// default.
type Reporter struct {
	Directory billing.Directory
	Payments  billing.PaymentSource
	Clock     billing.Clock
	Workers   int
}

func NewReporter(dir billing.Directory, payments billing.PaymentSource, clock billing.Clock) *Reporter {
	return &Reporter{Directory: dir, Payments: payments, Clock: clock}
}

func (r *Reporter) workers() int {
	if r.Workers > 0 {
		return r.Workers
	}
	return defaultWorkers
}

// Skipped records a subscriber excluded from accrual-basis figures, and why.
type Skipped struct {
	SubscriberID billing.SubscriberID
	Reason       string
}

// Summary is the cohort-level balance picture as of one reference date.
type Summary struct {
	AsOf             billing.Date
	TotalCollected   billing.Paise
	OutstandingTotal billing.Paise
	CreditTotal      billing.Paise
	SubscriberCount  int
	Skipped          []Skipped
}

// =============================================================================
// COHORT SUMMARY
// =============================================================================

// CohortSummary sums per-subscriber accruals across the cohort as of the
// clock's current date (read once for the whole run).
//
// TotalCollected is cash-basis: it includes payments from subscribers
// whose accrual had to be skipped.
func (r *Reporter) CohortSummary(ctx context.Context, filter billing.CohortFilter) (Summary, error) {
	ids, err := r.Directory.ListSubscribers(ctx, filter)
	if err != nil {
		return Summary{}, err
	}
	if len(ids) == 0 {
		return Summary{}, billing.ErrEmptyCohort
	}

	today := r.Clock.Today() // single snapshot for the whole run

	var (
		mu      sync.Mutex
		summary = Summary{AsOf: today, SubscriberCount: len(ids)}
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for _, id := range ids {
		id := id
		g.Go(func() error {
			payments, profile, skipReason := r.fetch(ctx, id, filter)
			totalPaid := billing.SumPayments(payments)

			mu.Lock()
			defer mu.Unlock()
			summary.TotalCollected += totalPaid

			if skipReason != "" {
				summary.Skipped = append(summary.Skipped, Skipped{SubscriberID: id, Reason: skipReason})
				return nil
			}
			result, err := billing.Accrue(profile, totalPaid, profile.CutoffDate(today))
			if err != nil {
				summary.Skipped = append(summary.Skipped, Skipped{SubscriberID: id, Reason: err.Error()})
				return nil
			}
			summary.OutstandingTotal += result.Outstanding
			summary.CreditTotal += result.Credit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	sortSkipped(summary.Skipped)
	return summary, nil
}

// fetch loads one subscriber's filtered payments and profile. A non-empty
// skip reason means accrual-basis figures must exclude the subscriber;
// the returned payments still feed cash-basis sums.
func (r *Reporter) fetch(ctx context.Context, id billing.SubscriberID, filter billing.CohortFilter) ([]billing.Payment, billing.BillingProfile, string) {
	payments, err := r.Payments.ListPayments(ctx, id)
	if err != nil {
		return nil, billing.BillingProfile{}, "payments unavailable: " + err.Error()
	}
	payments = filter.FilterPayments(payments)

	profile, err := r.Directory.GetBillingProfile(ctx, id)
	if err != nil {
		return payments, billing.BillingProfile{}, "billing profile unavailable: " + err.Error()
	}
	if !profile.Enrolled() {
		if len(payments) > 0 {
			// Payments with no billing terms: cash counts, accrual can't.
			ide := &billing.IncompleteDataError{SubscriberID: id, Missing: "join date"}
			return payments, profile, ide.Error()
		}
		// No terms and no payments is not an error, just a zero result.
		return payments, profile, ""
	}
	if err := profile.Validate(); err != nil {
		return payments, profile, err.Error()
	}
	return payments, profile, ""
}

func sortSkipped(s []Skipped) {
	sort.Slice(s, func(i, j int) bool { return s[i].SubscriberID < s[j].SubscriberID })
}
