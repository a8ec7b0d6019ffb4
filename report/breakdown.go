/*
breakdown.go - Payment-mode breakdown

PURPOSE:
  "How much of this cohort's revenue came in as cash vs. UPI vs. card?"
  Groups the cohort's payments by mode with totals, counts, and each
  mode's share of the cohort total. The share is the one place the
  engine divides, so it uses decimal.Decimal rather than floats.

  A subscriber whose payment history cannot be read is reported in
  Skipped; their money is absent from the totals, and the report says
  so rather than dropping it without trace.
*/
package report

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/academyhq/fee-engine/billing"
)

// ModeStat is one payment mode's slice of the cohort total.
type ModeStat struct {
	Mode    billing.PaymentMode
	Total   billing.Paise
	Count   int
	Percent decimal.Decimal // share of cohort total, 0-100, 2 decimal places
}

// ModeReport pairs the per-mode stats with the subscribers it had to
// skip. Percentages are shares of the included money only.
type ModeReport struct {
	Stats   []ModeStat
	Skipped []Skipped
}

// ModeBreakdown groups the cohort's payments by mode. Modes are ordered
// by total descending, mode name breaking ties, so the output is stable.
func (r *Reporter) ModeBreakdown(ctx context.Context, filter billing.CohortFilter) (ModeReport, error) {
	ids, err := r.Directory.ListSubscribers(ctx, filter)
	if err != nil {
		return ModeReport{}, err
	}
	if len(ids) == 0 {
		return ModeReport{}, billing.ErrEmptyCohort
	}

	var (
		mu     sync.Mutex
		totals = map[billing.PaymentMode]*ModeStat{}
		out    ModeReport
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for _, id := range ids {
		id := id
		g.Go(func() error {
			payments, err := r.Payments.ListPayments(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				out.Skipped = append(out.Skipped, Skipped{SubscriberID: id, Reason: "payments unavailable: " + err.Error()})
				return nil
			}
			for _, p := range filter.FilterPayments(payments) {
				stat, ok := totals[p.Mode]
				if !ok {
					stat = &ModeStat{Mode: p.Mode}
					totals[p.Mode] = stat
				}
				stat.Total += p.Amount
				stat.Count++
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ModeReport{}, err
	}

	var cohortTotal billing.Paise
	for _, stat := range totals {
		cohortTotal += stat.Total
	}

	stats := make([]ModeStat, 0, len(totals))
	hundred := decimal.NewFromInt(100)
	for _, stat := range totals {
		if cohortTotal > 0 {
			stat.Percent = decimal.NewFromInt(int64(stat.Total)).
				Mul(hundred).
				DivRound(decimal.NewFromInt(int64(cohortTotal)), 2)
		}
		stats = append(stats, *stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Total != stats[j].Total {
			return stats[i].Total > stats[j].Total
		}
		return stats[i].Mode < stats[j].Mode
	})
	out.Stats = stats
	sortSkipped(out.Skipped)
	return out, nil
}
