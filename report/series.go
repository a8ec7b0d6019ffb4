/*
series.go - Month-keyed revenue time series

PURPOSE:
  Two views of the same cohort's revenue:

  Cash basis:    group payments by the month the money ARRIVED.
                 A simple histogram, unaffected by accrual semantics.
  Accrual basis: run the allocation engine per subscriber and sum the
                 per-month allocations - revenue EARNED per month,
                 regardless of when the cash showed up.

  Both series are contiguous (zero-filled between first and last month)
  so charts never show gaps.
*/
package report

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/academyhq/fee-engine/billing"
)

// =============================================================================
// MONTH SERIES
// =============================================================================

// MonthPoint is one month's total in a revenue series.
type MonthPoint struct {
	Month  billing.MonthKey
	Amount billing.Paise
}

// MonthSeries is a chronologically ordered, contiguous revenue series.
type MonthSeries []MonthPoint

func (s MonthSeries) Total() billing.Paise {
	var total billing.Paise
	for _, p := range s {
		total += p.Amount
	}
	return total
}

// Get returns the amount for a month, zero if outside the series.
func (s MonthSeries) Get(k billing.MonthKey) billing.Paise {
	for _, p := range s {
		if p.Month == k {
			return p.Amount
		}
	}
	return 0
}

// RevenueSeries is a series plus the subscribers it had to skip.
type RevenueSeries struct {
	Series  MonthSeries
	Skipped []Skipped
}

// =============================================================================
// CASH-BASIS SERIES
// =============================================================================

// CashSeries groups the cohort's payments by the month they arrived.
// Subscribers without valid billing terms still count here; a payment is
// cash whether or not the terms behind it parse.
func (r *Reporter) CashSeries(ctx context.Context, filter billing.CohortFilter) (RevenueSeries, error) {
	ids, err := r.Directory.ListSubscribers(ctx, filter)
	if err != nil {
		return RevenueSeries{}, err
	}
	if len(ids) == 0 {
		return RevenueSeries{}, billing.ErrEmptyCohort
	}

	var (
		mu     sync.Mutex
		totals = map[billing.MonthKey]billing.Paise{}
		out    RevenueSeries
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
				totals[billing.MonthKeyOf(p.PaidOn)] += p.Amount
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RevenueSeries{}, err
	}

	out.Series = buildMonthSeries(totals)
	sortSkipped(out.Skipped)
	return out, nil
}

// =============================================================================
// ACCRUAL-BASIS SERIES
// =============================================================================

// AccrualSeries runs the allocation engine per subscriber and sums the
// allocations per month across the cohort. Subscribers whose profile is
// invalid or missing are skipped and reported.
func (r *Reporter) AccrualSeries(ctx context.Context, filter billing.CohortFilter) (RevenueSeries, error) {
	ids, err := r.Directory.ListSubscribers(ctx, filter)
	if err != nil {
		return RevenueSeries{}, err
	}
	if len(ids) == 0 {
		return RevenueSeries{}, billing.ErrEmptyCohort
	}

	var (
		mu     sync.Mutex
		totals = map[billing.MonthKey]billing.Paise{}
		out    RevenueSeries
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for _, id := range ids {
		id := id
		g.Go(func() error {
			payments, profile, skipReason := r.fetch(ctx, id, filter)

			mu.Lock()
			defer mu.Unlock()
			if skipReason != "" {
				out.Skipped = append(out.Skipped, Skipped{SubscriberID: id, Reason: skipReason})
				return nil
			}
			if len(payments) == 0 {
				return nil
			}
			allocation, err := billing.Allocate(profile, payments)
			if err != nil {
				out.Skipped = append(out.Skipped, Skipped{SubscriberID: id, Reason: err.Error()})
				return nil
			}
			for _, k := range allocation.Months() {
				totals[k] += allocation.Get(k)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RevenueSeries{}, err
	}

	out.Series = buildMonthSeries(totals)
	sortSkipped(out.Skipped)
	return out, nil
}

// buildMonthSeries produces the contiguous ordered series spanning the
// touched months, zero-filling gaps.
func buildMonthSeries(totals map[billing.MonthKey]billing.Paise) MonthSeries {
	if len(totals) == 0 {
		return nil
	}

	var first, last billing.MonthKey
	for k := range totals {
		if first == "" || k.Before(first) {
			first = k
		}
		if last == "" || last.Before(k) {
			last = k
		}
	}

	start, err := first.Date()
	if err != nil {
		return nil
	}
	end, err := last.Date()
	if err != nil {
		return nil
	}

	var series MonthSeries
	for m := start; m.BeforeOrEqual(end); m = m.AddMonths(1) {
		k := billing.MonthKeyOf(m)
		series = append(series, MonthPoint{Month: k, Amount: totals[k]})
	}
	return series
}
