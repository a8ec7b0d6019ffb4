/*
errors.go - Centralized error types for the billing engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers and the report package wrap these with additional context.

ERROR CATEGORIES:
  1. Validation errors - A profile violates an invariant
  2. Incomplete-data errors - Payments exist but billing terms are missing
  3. Lookup errors - Referenced subscriber/plan/payment does not exist

PROPAGATION POLICY:
  Per-subscriber errors are isolated: cohort-level reporting collects them
  into a skipped list and keeps going. Only a fully invalid request (an
  empty cohort, a clock failure) surfaces as a hard failure.

USAGE:
  if errors.Is(err, billing.ErrInvalidProfile) {
      // exclude subscriber, report in skipped list
  }
*/
package billing

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidProfile is wrapped by every ValidationError.
	ErrInvalidProfile = errors.New("invalid billing profile")

	// ErrIncompleteData is wrapped by every IncompleteDataError.
	ErrIncompleteData = errors.New("incomplete billing data")

	// ErrNotEnrolled is returned when an operation needs a join date and
	// the subscriber has none.
	ErrNotEnrolled = errors.New("subscriber not enrolled")

	// ErrSubscriberNotFound is returned when a referenced subscriber doesn't exist.
	ErrSubscriberNotFound = errors.New("subscriber not found")

	// ErrPlanNotFound is returned when a referenced fee plan doesn't exist.
	ErrPlanNotFound = errors.New("fee plan not found")

	// ErrDuplicatePayment is returned when a payment ID is recorded twice.
	// Payments are append-only; re-submitting the same ID is rejected.
	ErrDuplicatePayment = errors.New("duplicate payment id")

	// ErrAlreadyChurned is returned when churn is requested for a
	// subscriber whose churn date is already set. Churn is set once.
	ErrAlreadyChurned = errors.New("subscriber already churned")

	// ErrEmptyCohort is returned when a cohort-level report matches no
	// subscribers at all.
	ErrEmptyCohort = errors.New("cohort has no subscribers")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a billing profile invariant violation.
type ValidationError struct {
	SubscriberID SubscriberID
	Field        string
	Rule         string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid billing profile for %s: %s (%s)", e.SubscriberID, e.Rule, e.Field)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidProfile }

// IncompleteDataError reports a subscriber whose accrual-basis figures had
// to be skipped (e.g., payments on record but no join date). Cash-basis
// figures still include such subscribers.
type IncompleteDataError struct {
	SubscriberID SubscriberID
	Missing      string
}

func (e *IncompleteDataError) Error() string {
	return fmt.Sprintf("incomplete data for %s: missing %s", e.SubscriberID, e.Missing)
}

func (e *IncompleteDataError) Unwrap() error { return ErrIncompleteData }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidProfile) ||
		errors.Is(err, ErrDuplicatePayment) ||
		errors.Is(err, ErrAlreadyChurned) ||
		errors.Is(err, ErrEmptyCohort)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSubscriberNotFound) ||
		errors.Is(err, ErrPlanNotFound)
}
