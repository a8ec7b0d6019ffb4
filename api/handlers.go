/*
handlers.go - HTTP API handlers for the fee engine

PURPOSE:
  Exposes the accrual and allocation engine via REST. Handles HTTP
  request/response and JSON serialization, and delegates every
  computation to the billing and report packages - handlers never
  re-implement balance math.

ENDPOINTS:
  Subscribers:
    GET    /api/subscribers                  List (filter by ?centers=)
    POST   /api/subscribers                  Enroll against a plan
    GET    /api/subscribers/{id}             Directory row + terms
    POST   /api/subscribers/{id}/churn       Set churn date (once)
    GET    /api/subscribers/{id}/wallet      Accrual result as of today
    GET    /api/subscribers/{id}/allocations Monthly allocation series
    GET    /api/subscribers/{id}/payments    Payment history
    POST   /api/subscribers/{id}/payments    Record a payment

  Reports (cohort filter via ?centers=&from=&to=&modes=):
    GET    /api/reports/summary              Cohort summary + skipped
    GET    /api/reports/revenue?basis=cash|accrual
    GET    /api/reports/modes                Payment-mode breakdown

  Plans:
    GET    /api/plans                        List fee plans
    POST   /api/plans                        Create from JSON config
    GET    /api/plans/{id}

  Admin:
    GET    /api/admin/clock                  Current reporting date
    POST   /api/admin/clock                  Set date override
    DELETE /api/admin/clock                  Clear override

ERROR HANDLING:
  - 400: Validation errors, invalid input
  - 404: Subscriber/plan not found
  - 409: Duplicate payment, repeated churn
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization here. Callers are expected to
  pre-filter the cohort (e.g., a coach's centers) before these handlers
  are reachable; the engine itself performs no access control.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - scenarios.go: Demo data loaders
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/academyhq/fee-engine/billing"
	"github.com/academyhq/fee-engine/factory"
	"github.com/academyhq/fee-engine/report"
	"github.com/academyhq/fee-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Plans    *factory.PlanFactory
	Clock    *billing.SystemClock
	Reporter *report.Reporter

	// Track currently loaded demo scenario
	currentScenario string
}

// NewHandler creates a handler backed by the given store and clock.
func NewHandler(store *sqlite.Store, clock *billing.SystemClock) *Handler {
	return &Handler{
		Store:    store,
		Plans:    factory.NewPlanFactory(),
		Clock:    clock,
		Reporter: report.NewReporter(store, store, clock),
	}
}

// =============================================================================
// SUBSCRIBERS
// =============================================================================

func (h *Handler) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := h.Store.ListAll(r.Context(), cohortFilterFromQuery(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list subscribers", err)
		return
	}

	dtos := make([]SubscriberDTO, 0, len(subs))
	for _, sub := range subs {
		dtos = append(dtos, toSubscriberDTO(sub))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	var req EnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.PlanID == "" {
		writeError(w, http.StatusBadRequest, "id and plan_id are required", nil)
		return
	}

	joinDate, err := billing.ParseDate(req.JoinDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid join_date format (use YYYY-MM-DD)", err)
		return
	}

	rec, err := h.Store.GetPlan(r.Context(), billing.PlanID(req.PlanID))
	if err != nil {
		if billing.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Plan not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load plan", err)
		return
	}
	plan, err := h.Plans.ParsePlan(rec.ConfigJSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored plan config is invalid", err)
		return
	}

	sub := sqlite.Subscriber{
		ID:       billing.SubscriberID(req.ID),
		Name:     req.Name,
		CenterID: billing.CenterID(req.CenterID),
		Profile:  plan.ProfileFor(billing.SubscriberID(req.ID), joinDate),
	}
	if err := sub.Profile.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid billing terms", err)
		return
	}
	if err := h.Store.SaveSubscriber(r.Context(), sub); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to enroll subscriber", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSubscriberDTO(sub))
}

func (h *Handler) GetSubscriber(w http.ResponseWriter, r *http.Request) {
	id := billing.SubscriberID(chi.URLParam(r, "id"))
	sub, err := h.Store.GetSubscriber(r.Context(), id)
	if err != nil {
		if billing.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Subscriber not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get subscriber", err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscriberDTO(sub))
}

func (h *Handler) Churn(w http.ResponseWriter, r *http.Request) {
	id := billing.SubscriberID(chi.URLParam(r, "id"))

	var req ChurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	churn, err := billing.ParseDate(req.ChurnDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid churn_date format (use YYYY-MM-DD)", err)
		return
	}

	if err := h.Store.SetChurnDate(r.Context(), id, churn); err != nil {
		switch {
		case billing.IsNotFound(err):
			writeError(w, http.StatusNotFound, "Subscriber not found", nil)
		case billing.IsClientError(err):
			writeError(w, http.StatusConflict, "Subscriber already churned", err)
		default:
			writeError(w, http.StatusInternalServerError, "Failed to churn subscriber", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "churned"})
}

// =============================================================================
// PAYMENTS
// =============================================================================

func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	id := billing.SubscriberID(chi.URLParam(r, "id"))

	var req RecordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}
	paidOn, err := billing.ParseDate(req.PaidOn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paid_on format (use YYYY-MM-DD)", err)
		return
	}
	if _, err := h.Store.GetSubscriber(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, "Subscriber not found", nil)
		return
	}

	paymentID := req.ID
	if paymentID == "" {
		paymentID = fmt.Sprintf("pay-%s-%d", id, time.Now().UnixNano())
	}
	payment := billing.Payment{
		ID:           billing.PaymentID(paymentID),
		SubscriberID: id,
		Amount:       billing.Paise(req.Amount),
		PaidOn:       paidOn,
		Mode:         billing.PaymentMode(req.Mode),
		Reference:    req.Reference,
		Notes:        req.Notes,
	}
	if payment.Mode == "" {
		payment.Mode = billing.ModeCash
	}

	if err := h.Store.RecordPayment(r.Context(), payment); err != nil {
		if billing.IsClientError(err) {
			writeError(w, http.StatusConflict, "Duplicate payment id", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to record payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentDTO(payment))
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	id := billing.SubscriberID(chi.URLParam(r, "id"))
	payments, err := h.Store.ListPayments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	dtos := make([]PaymentDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, toPaymentDTO(p))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// WALLET & ALLOCATIONS
// =============================================================================

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	id := billing.SubscriberID(chi.URLParam(r, "id"))

	profile, payments, ok := h.loadSubscriberData(w, r.Context(), id)
	if !ok {
		return
	}

	asOf := profile.CutoffDate(h.Clock.Today())
	result, err := billing.Accrue(profile, billing.SumPayments(payments), asOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Billing profile is invalid", err)
		return
	}

	writeJSON(w, http.StatusOK, WalletDTO{
		SubscriberID:  string(id),
		AsOf:          asOf.String(),
		FeesAccrued:   int64(result.FeesAccrued),
		TotalPaid:     int64(result.TotalPaid),
		WalletBalance: int64(result.WalletBalance),
		Outstanding:   int64(result.Outstanding),
		Credit:        int64(result.Credit),
	})
}

func (h *Handler) GetAllocations(w http.ResponseWriter, r *http.Request) {
	id := billing.SubscriberID(chi.URLParam(r, "id"))

	profile, payments, ok := h.loadSubscriberData(w, r.Context(), id)
	if !ok {
		return
	}

	allocation, err := billing.Allocate(profile, payments)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Cannot allocate payments", err)
		return
	}

	months := make([]MonthAmountDTO, 0, allocation.Len())
	for _, k := range allocation.Months() {
		months = append(months, MonthAmountDTO{Month: string(k), Amount: int64(allocation.Get(k))})
	}
	writeJSON(w, http.StatusOK, AllocationDTO{
		SubscriberID: string(id),
		Months:       months,
		Total:        int64(allocation.Total()),
	})
}

func (h *Handler) loadSubscriberData(w http.ResponseWriter, ctx context.Context, id billing.SubscriberID) (billing.BillingProfile, []billing.Payment, bool) {
	profile, err := h.Store.GetBillingProfile(ctx, id)
	if err != nil {
		if billing.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Subscriber not found", nil)
		} else {
			writeError(w, http.StatusInternalServerError, "Failed to load billing profile", err)
		}
		return billing.BillingProfile{}, nil, false
	}
	payments, err := h.Store.ListPayments(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load payments", err)
		return billing.BillingProfile{}, nil, false
	}
	return profile, payments, true
}

// =============================================================================
// REPORTS
// =============================================================================

func (h *Handler) ReportSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Reporter.CohortSummary(r.Context(), cohortFilterFromQuery(r))
	if err != nil {
		writeReportError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SummaryDTO{
		AsOf:             summary.AsOf.String(),
		TotalCollected:   int64(summary.TotalCollected),
		OutstandingTotal: int64(summary.OutstandingTotal),
		CreditTotal:      int64(summary.CreditTotal),
		SubscriberCount:  summary.SubscriberCount,
		SkippedCount:     len(summary.Skipped),
		Skipped:          toSkippedDTOs(summary.Skipped),
	})
}

func (h *Handler) ReportRevenue(w http.ResponseWriter, r *http.Request) {
	basis := r.URL.Query().Get("basis")
	if basis == "" {
		basis = "cash"
	}

	var (
		series report.RevenueSeries
		err    error
	)
	switch basis {
	case "cash":
		series, err = h.Reporter.CashSeries(r.Context(), cohortFilterFromQuery(r))
	case "accrual":
		series, err = h.Reporter.AccrualSeries(r.Context(), cohortFilterFromQuery(r))
	default:
		writeError(w, http.StatusBadRequest, "basis must be 'cash' or 'accrual'", nil)
		return
	}
	if err != nil {
		writeReportError(w, err)
		return
	}

	months := make([]MonthAmountDTO, 0, len(series.Series))
	for _, p := range series.Series {
		months = append(months, MonthAmountDTO{Month: string(p.Month), Amount: int64(p.Amount)})
	}
	writeJSON(w, http.StatusOK, RevenueSeriesDTO{
		Basis:        basis,
		Months:       months,
		Total:        int64(series.Series.Total()),
		SkippedCount: len(series.Skipped),
		Skipped:      toSkippedDTOs(series.Skipped),
	})
}

func (h *Handler) ReportModes(w http.ResponseWriter, r *http.Request) {
	breakdown, err := h.Reporter.ModeBreakdown(r.Context(), cohortFilterFromQuery(r))
	if err != nil {
		writeReportError(w, err)
		return
	}

	dtos := make([]ModeStatDTO, 0, len(breakdown.Stats))
	for _, s := range breakdown.Stats {
		dtos = append(dtos, ModeStatDTO{
			Mode:    string(s.Mode),
			Total:   int64(s.Total),
			Count:   s.Count,
			Percent: s.Percent.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, ModeBreakdownDTO{
		Modes:        dtos,
		SkippedCount: len(breakdown.Skipped),
		Skipped:      toSkippedDTOs(breakdown.Skipped),
	})
}

// =============================================================================
// PLANS
// =============================================================================

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListPlans(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list plans", err)
		return
	}

	dtos := make([]PlanDTO, 0, len(recs))
	for _, rec := range recs {
		dto, err := h.toPlanDTO(rec)
		if err != nil {
			continue // skip unparseable stored configs
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var cfg factory.PlanJSON
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	plan, err := h.Plans.FromConfig(cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid plan config", err)
		return
	}

	raw, _ := json.Marshal(cfg)
	rec := sqlite.PlanRecord{ID: plan.ID, Name: plan.Name, ConfigJSON: string(raw)}
	if err := h.Store.SavePlan(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save plan", err)
		return
	}
	writeJSON(w, http.StatusCreated, PlanDTO{ID: string(plan.ID), Name: plan.Name, Config: cfg})
}

func (h *Handler) GetPlan(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetPlan(r.Context(), billing.PlanID(chi.URLParam(r, "id")))
	if err != nil {
		if billing.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Plan not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get plan", err)
		return
	}
	dto, err := h.toPlanDTO(rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored plan config is invalid", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

func (h *Handler) toPlanDTO(rec sqlite.PlanRecord) (PlanDTO, error) {
	var cfg factory.PlanJSON
	if err := json.Unmarshal([]byte(rec.ConfigJSON), &cfg); err != nil {
		return PlanDTO{}, err
	}
	return PlanDTO{ID: string(rec.ID), Name: rec.Name, Config: cfg}, nil
}

// =============================================================================
// ADMIN - Reporting-date override
// =============================================================================

func (h *Handler) GetClock(w http.ResponseWriter, r *http.Request) {
	_, overridden := h.Clock.Overridden()
	writeJSON(w, http.StatusOK, ClockDTO{
		Today:      h.Clock.Today().String(),
		Overridden: overridden,
	})
}

func (h *Handler) SetClock(w http.ResponseWriter, r *http.Request) {
	var req ClockOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	d, err := billing.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	h.Clock.SetOverride(d)
	writeJSON(w, http.StatusOK, ClockDTO{Today: d.String(), Overridden: true})
}

func (h *Handler) ClearClock(w http.ResponseWriter, r *http.Request) {
	h.Clock.ClearOverride()
	writeJSON(w, http.StatusOK, ClockDTO{Today: h.Clock.Today().String(), Overridden: false})
}

// =============================================================================
// HELPERS
// =============================================================================

// cohortFilterFromQuery builds the cohort filter from query parameters:
// ?centers=a,b&from=2024-01-01&to=2024-12-31&modes=cash,upi
func cohortFilterFromQuery(r *http.Request) billing.CohortFilter {
	var filter billing.CohortFilter
	q := r.URL.Query()

	if centers := q.Get("centers"); centers != "" {
		for _, c := range strings.Split(centers, ",") {
			filter.CenterIDs = append(filter.CenterIDs, billing.CenterID(strings.TrimSpace(c)))
		}
	}
	if from := q.Get("from"); from != "" {
		if d, err := billing.ParseDate(from); err == nil {
			filter.From = &d
		}
	}
	if to := q.Get("to"); to != "" {
		if d, err := billing.ParseDate(to); err == nil {
			filter.To = &d
		}
	}
	if modes := q.Get("modes"); modes != "" {
		for _, m := range strings.Split(modes, ",") {
			filter.Modes = append(filter.Modes, billing.PaymentMode(strings.TrimSpace(m)))
		}
	}
	return filter
}

func toSubscriberDTO(sub sqlite.Subscriber) SubscriberDTO {
	dto := SubscriberDTO{
		ID:          string(sub.ID),
		Name:        sub.Name,
		CenterID:    string(sub.CenterID),
		MonthlyFee:  int64(sub.Profile.MonthlyFee),
		CycleMonths: sub.Profile.CycleMonths,
		Active:      sub.Profile.Active,
	}
	if !sub.Profile.JoinDate.IsZero() {
		dto.JoinDate = sub.Profile.JoinDate.String()
	}
	if sub.Profile.ChurnDate != nil {
		dto.ChurnDate = sub.Profile.ChurnDate.String()
	}
	return dto
}

func toPaymentDTO(p billing.Payment) PaymentDTO {
	return PaymentDTO{
		ID:        string(p.ID),
		Amount:    int64(p.Amount),
		PaidOn:    p.PaidOn.String(),
		Mode:      string(p.Mode),
		Reference: p.Reference,
		Notes:     p.Notes,
	}
}

func toSkippedDTOs(skipped []report.Skipped) []SkippedDTO {
	dtos := make([]SkippedDTO, 0, len(skipped))
	for _, s := range skipped {
		dtos = append(dtos, SkippedDTO{SubscriberID: string(s.SubscriberID), Reason: s.Reason})
	}
	return dtos
}

func writeReportError(w http.ResponseWriter, err error) {
	if billing.IsClientError(err) {
		writeError(w, http.StatusBadRequest, "Cohort matches no subscribers", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "Report failed", err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
