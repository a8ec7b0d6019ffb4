/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Seeds the store with canned cohorts so the engine's behaviors are
  visible without hand-entering data: arrears catch-up, overpayment
  prepay, churned subscribers, and a subscriber with payments but no
  billing terms (the reconciliation "skipped" case).

USAGE:
  POST /api/scenarios/load {"name": "academy-demo"}

  Scenarios write through the same store paths as the real API; they do
  not bypass append-only payment semantics.
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/academyhq/fee-engine/billing"
	"github.com/academyhq/fee-engine/factory"
	"github.com/academyhq/fee-engine/store/sqlite"
)

// ScenarioDTO describes one loadable demo scenario.
type ScenarioDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Current     bool   `json:"current"`
}

// LoadScenarioRequest names the scenario to load.
type LoadScenarioRequest struct {
	Name string `json:"name"`
}

func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := []ScenarioDTO{
		{
			Name:        "academy-demo",
			Description: "One center: on-time payer, arrears catch-up, prepaid, churned, and a payments-only record",
			Current:     h.currentScenario == "academy-demo",
		},
	}
	writeJSON(w, http.StatusOK, scenarios)
}

func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	switch req.Name {
	case "academy-demo":
		if err := h.loadAcademyDemo(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
			return
		}
	default:
		writeError(w, http.StatusNotFound, "Unknown scenario", nil)
		return
	}

	h.currentScenario = req.Name
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.Name})
}

// loadAcademyDemo seeds one center with the canonical billing shapes.
// All dates sit in the first half of 2024 so the scenario pairs with a
// clock override of 2024-06-15 for stable demo numbers.
func (h *Handler) loadAcademyDemo(ctx context.Context) error {
	planJSON := factory.MonthlyPlanJSON("demo-monthly", "Demo Monthly", 100000) // Rs. 1000/month
	plan, err := h.Plans.ParsePlan(planJSON)
	if err != nil {
		return err
	}
	if err := h.Store.SavePlan(ctx, sqlite.PlanRecord{ID: plan.ID, Name: plan.Name, ConfigJSON: planJSON}); err != nil {
		return err
	}

	jan15 := billing.NewDate(2024, time.January, 15)
	center := billing.CenterID("center-demo")

	type seed struct {
		id       string
		name     string
		join     billing.Date
		churn    *billing.Date
		payments []billing.Payment
	}
	mar31 := billing.NewDate(2024, time.March, 31)
	seeds := []seed{
		{
			// Pays every month on time.
			id: "demo-ontime", name: "Asha Rao", join: jan15,
			payments: []billing.Payment{
				{Amount: 100000, PaidOn: billing.NewDate(2024, time.January, 15), Mode: billing.ModeUPI},
				{Amount: 100000, PaidOn: billing.NewDate(2024, time.February, 10), Mode: billing.ModeUPI},
				{Amount: 100000, PaidOn: billing.NewDate(2024, time.March, 12), Mode: billing.ModeUPI},
			},
		},
		{
			// One late lump covering January-February arrears plus part of March.
			id: "demo-arrears", name: "Vikram Singh", join: jan15,
			payments: []billing.Payment{
				{Amount: 250000, PaidOn: billing.NewDate(2024, time.March, 5), Mode: billing.ModeCash},
			},
		},
		{
			// Prepaid five months on day one.
			id: "demo-prepaid", name: "Meera Iyer", join: jan15,
			payments: []billing.Payment{
				{Amount: 500000, PaidOn: jan15, Mode: billing.ModeCard},
			},
		},
		{
			// Churned end of March; accrual stops there.
			id: "demo-churned", name: "Rahul Nair", join: jan15, churn: &mar31,
			payments: []billing.Payment{
				{Amount: 300000, PaidOn: billing.NewDate(2024, time.January, 20), Mode: billing.ModeBank},
			},
		},
	}

	for _, s := range seeds {
		sub := sqlite.Subscriber{
			ID:       billing.SubscriberID(s.id),
			Name:     s.name,
			CenterID: center,
			Profile:  plan.ProfileFor(billing.SubscriberID(s.id), s.join),
		}
		if s.churn != nil {
			sub.Profile.ChurnDate = s.churn
			sub.Profile.Active = false
		}
		if err := h.Store.SaveSubscriber(ctx, sub); err != nil {
			return err
		}
		for i, p := range s.payments {
			p.ID = billing.PaymentID(fmt.Sprintf("%s-p%d", s.id, i+1))
			p.SubscriberID = sub.ID
			if err := h.Store.RecordPayment(ctx, p); err != nil {
				return err
			}
		}
	}

	// Payments on record but no join date: counted in cash-basis sums,
	// skipped (and reported) in accrual-basis figures.
	orphan := sqlite.Subscriber{
		ID:       "demo-noterms",
		Name:     "Walk-in Trial",
		CenterID: center,
		Profile:  billing.BillingProfile{SubscriberID: "demo-noterms", CycleMonths: 1},
	}
	if err := h.Store.SaveSubscriber(ctx, orphan); err != nil {
		return err
	}
	return h.Store.RecordPayment(ctx, billing.Payment{
		ID:           "demo-noterms-p1",
		SubscriberID: orphan.ID,
		Amount:       50000,
		PaidOn:       billing.NewDate(2024, time.February, 1),
		Mode:         billing.ModeCash,
	})
}
