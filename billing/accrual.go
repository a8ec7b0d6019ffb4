/*
accrual.go - How much does a subscriber owe as of a reference date?

PURPOSE:
  Accrue is the canonical answer to "what is this student's balance?".
  It is a pure function of (profile, totalPaid, asOf); a dozen call sites
  (dashboard, wallet, bulk import, cohort summaries) all go through it so
  the figure can never differ between screens.

ALGORITHM:
  1. Not yet enrolled, or asOf before joining: zero accrual.
  2. monthsElapsed = calendar months from join month to asOf month,
     counting the join month itself (fee is due at the START of a cycle),
     floored at 1.
  3. cyclesAccrued = ceil(monthsElapsed / cycleMonths). The subscriber
     owes for the cycle they are currently partway through.
  4. feesAccrued = cyclesAccrued * monthlyFee * cycleMonths.
  5. wallet = totalPaid - feesAccrued; split into outstanding / credit.

  The ceiling in step 3 is the single canonical rounding rule. An earlier
  generation of this computation floored in some call sites and ceiled in
  others, showing two different "amount owed" figures for the same
  student depending on the screen.

GUARANTEES:
  - Pure, no I/O, deterministic for identical inputs.
  - Monotonic: advancing asOf never decreases outstanding; increasing
    totalPaid never increases it.

CUTOFF:
  Callers pass asOf = profile.CutoffDate(clock.Today()) so that churned
  subscribers stop accruing at their churn date.

SEE ALSO:
  - allocation.go: The per-month view of the same terms
  - report/: Cohort-level composition
*/
package billing

// Accrue computes the accrual state of one subscriber as of a reference
// date. totalPaid is the externally computed sum of all payment amounts;
// keeping it an input keeps the function side-effect-free and testable
// with synthetic totals.
//
// An invalid profile fails fast with a *ValidationError.
func Accrue(profile BillingProfile, totalPaid Paise, asOf Date) (AccrualResult, error) {
	if err := profile.Validate(); err != nil {
		return AccrualResult{}, err
	}

	if !profile.Enrolled() || asOf.Before(profile.JoinDate) {
		// Not yet enrolled: nothing accrued, anything paid sits as credit.
		return AccrualResult{
			TotalPaid:     totalPaid,
			WalletBalance: totalPaid,
			Credit:        MaxPaise(0, totalPaid),
			Outstanding:   MaxPaise(0, totalPaid.Neg()),
		}, nil
	}

	// The join month counts as one elapsed month: fee is due at cycle
	// start, so at least one cycle is owed the moment enrollment begins.
	monthsElapsed := MonthsBetween(profile.JoinDate, asOf) + 1
	if monthsElapsed < 1 {
		monthsElapsed = 1
	}

	cyclesAccrued := ceilDiv(monthsElapsed, profile.CycleMonths)
	feesAccrued := profile.MonthlyFee * Paise(int64(cyclesAccrued)*int64(profile.CycleMonths))

	wallet := totalPaid - feesAccrued
	return AccrualResult{
		FeesAccrued:   feesAccrued,
		TotalPaid:     totalPaid,
		WalletBalance: wallet,
		Outstanding:   MaxPaise(0, wallet.Neg()),
		Credit:        MaxPaise(0, wallet),
	}, nil
}

// ceilDiv is integer ceiling division for positive divisors.
// Validate() guarantees the divisor is >= 1 before any call lands here.
func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}
