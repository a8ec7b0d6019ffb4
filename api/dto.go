/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's internal model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

DATES:
  All dates cross the wire as "YYYY-MM-DD" strings; months as "YYYY-MM".
  Amounts are integer paise; percentages are decimal strings.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/plan.go: PlanJSON type (plan configs cross the wire as-is)
*/
package api

import (
	"github.com/academyhq/fee-engine/factory"
)

// =============================================================================
// SUBSCRIBERS
// =============================================================================

// SubscriberDTO represents a subscriber in API responses.
type SubscriberDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CenterID    string `json:"center_id"`
	JoinDate    string `json:"join_date,omitempty"`
	ChurnDate   string `json:"churn_date,omitempty"`
	MonthlyFee  int64  `json:"monthly_fee"`
	CycleMonths int    `json:"cycle_months"`
	Active      bool   `json:"active"`
}

// EnrollRequest enrolls a subscriber against a fee plan.
type EnrollRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	CenterID string `json:"center_id"`
	PlanID   string `json:"plan_id"`
	JoinDate string `json:"join_date"`
}

// ChurnRequest cancels a subscription effective the given date.
type ChurnRequest struct {
	ChurnDate string `json:"churn_date"`
}

// =============================================================================
// PAYMENTS
// =============================================================================

// RecordPaymentRequest records one cash receipt.
type RecordPaymentRequest struct {
	ID        string `json:"id,omitempty"` // generated when empty
	Amount    int64  `json:"amount"`       // paise, > 0
	PaidOn    string `json:"paid_on"`
	Mode      string `json:"mode"`
	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// PaymentDTO represents a payment in API responses.
type PaymentDTO struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	PaidOn    string `json:"paid_on"`
	Mode      string `json:"mode"`
	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// =============================================================================
// WALLET & ALLOCATIONS
// =============================================================================

// WalletDTO is the per-subscriber accrual view.
type WalletDTO struct {
	SubscriberID  string `json:"subscriber_id"`
	AsOf          string `json:"as_of"`
	FeesAccrued   int64  `json:"fees_accrued"`
	TotalPaid     int64  `json:"total_paid"`
	WalletBalance int64  `json:"wallet_balance"`
	Outstanding   int64  `json:"outstanding"`
	Credit        int64  `json:"credit"`
}

// MonthAmountDTO is one month's amount in a series.
type MonthAmountDTO struct {
	Month  string `json:"month"` // "YYYY-MM"
	Amount int64  `json:"amount"`
}

// AllocationDTO is the per-subscriber monthly allocation series.
type AllocationDTO struct {
	SubscriberID string           `json:"subscriber_id"`
	Months       []MonthAmountDTO `json:"months"`
	Total        int64            `json:"total"`
}

// =============================================================================
// REPORTS
// =============================================================================

// SkippedDTO names a subscriber excluded from accrual figures, and why.
type SkippedDTO struct {
	SubscriberID string `json:"subscriber_id"`
	Reason       string `json:"reason"`
}

// SummaryDTO is the cohort summary response.
type SummaryDTO struct {
	AsOf             string       `json:"as_of"`
	TotalCollected   int64        `json:"total_collected"`
	OutstandingTotal int64        `json:"outstanding_total"`
	CreditTotal      int64        `json:"credit_total"`
	SubscriberCount  int          `json:"subscriber_count"`
	SkippedCount     int          `json:"skipped_count"`
	Skipped          []SkippedDTO `json:"skipped,omitempty"`
}

// RevenueSeriesDTO is a cash- or accrual-basis revenue series response.
type RevenueSeriesDTO struct {
	Basis        string           `json:"basis"` // "cash" or "accrual"
	Months       []MonthAmountDTO `json:"months"`
	Total        int64            `json:"total"`
	SkippedCount int              `json:"skipped_count"`
	Skipped      []SkippedDTO     `json:"skipped,omitempty"`
}

// ModeStatDTO is one payment mode's share of the cohort total.
type ModeStatDTO struct {
	Mode    string `json:"mode"`
	Total   int64  `json:"total"`
	Count   int    `json:"count"`
	Percent string `json:"percent"` // decimal string, 2 places
}

// ModeBreakdownDTO is the payment-mode breakdown response.
type ModeBreakdownDTO struct {
	Modes        []ModeStatDTO `json:"modes"`
	SkippedCount int           `json:"skipped_count"`
	Skipped      []SkippedDTO  `json:"skipped,omitempty"`
}

// =============================================================================
// PLANS
// =============================================================================

// PlanDTO represents a fee plan in API responses.
type PlanDTO struct {
	ID     string           `json:"id"`
	Name   string           `json:"name"`
	Config factory.PlanJSON `json:"config"`
}

// =============================================================================
// ADMIN
// =============================================================================

// ClockOverrideRequest pins the reporting date.
type ClockOverrideRequest struct {
	Date string `json:"date"`
}

// ClockDTO reports the clock state.
type ClockDTO struct {
	Today      string `json:"today"`
	Overridden bool   `json:"overridden"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
