/*
Package factory converts JSON fee-plan definitions into billing terms.

PURPOSE:
  Academy admins define fee plans (monthly, quarterly, annual) without
  code changes: plans live as JSON in the database and in the admin UI,
  and the factory turns them into validated billing terms at enrollment.

JSON SCHEMA:
  {
    "id": "u14-quarterly",
    "name": "Under-14 Quarterly",
    "monthly_fee": 150000,
    "cycle_months": 3
  }

  monthly_fee is in paise. The amount billed per cycle is
  monthly_fee * cycle_months.

USAGE:
  pf := factory.NewPlanFactory()
  plan, err := pf.ParsePlan(configJSON)
  profile := plan.ProfileFor("sub-123", joinDate)

SEE ALSO:
  - billing/profile.go: The terms a plan expands into
  - store/sqlite: Plan persistence (config stored as JSON)
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/academyhq/fee-engine/billing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PlanJSON is the JSON representation of a fee plan.
type PlanJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MonthlyFee  int64  `json:"monthly_fee"`  // paise
	CycleMonths int    `json:"cycle_months"` // 1 = monthly, 3 = quarterly
}

// Plan is a parsed, validated fee plan.
type Plan struct {
	ID          billing.PlanID
	Name        string
	MonthlyFee  billing.Paise
	CycleMonths int
}

// ProfileFor expands the plan into billing terms for one subscriber.
func (p Plan) ProfileFor(id billing.SubscriberID, joinDate billing.Date) billing.BillingProfile {
	return billing.BillingProfile{
		SubscriberID: id,
		JoinDate:     joinDate,
		MonthlyFee:   p.MonthlyFee,
		CycleMonths:  p.CycleMonths,
		Active:       true,
	}
}

// =============================================================================
// PLAN FACTORY
// =============================================================================

type PlanFactory struct{}

func NewPlanFactory() *PlanFactory { return &PlanFactory{} }

// ParsePlan parses and validates a JSON plan definition.
func (pf *PlanFactory) ParsePlan(configJSON string) (*Plan, error) {
	var cfg PlanJSON
	if err := json.Unmarshal([]byte(configJSON), &cfg); err != nil {
		return nil, fmt.Errorf("invalid plan JSON: %w", err)
	}
	return pf.FromConfig(cfg)
}

// FromConfig validates an already-decoded plan definition.
func (pf *PlanFactory) FromConfig(cfg PlanJSON) (*Plan, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("plan requires an id")
	}
	if cfg.Name == "" {
		cfg.Name = cfg.ID
	}
	if cfg.MonthlyFee < 0 {
		return nil, fmt.Errorf("plan %s: monthly_fee must not be negative", cfg.ID)
	}
	if cfg.CycleMonths < 1 {
		return nil, fmt.Errorf("plan %s: cycle_months must be at least 1", cfg.ID)
	}
	return &Plan{
		ID:          billing.PlanID(cfg.ID),
		Name:        cfg.Name,
		MonthlyFee:  billing.Paise(cfg.MonthlyFee),
		CycleMonths: cfg.CycleMonths,
	}, nil
}

// =============================================================================
// PRESETS - Ready-made plan definitions
// =============================================================================

// MonthlyPlanJSON returns a monthly plan definition as JSON.
func MonthlyPlanJSON(id, name string, monthlyFeePaise int64) string {
	return planJSON(PlanJSON{ID: id, Name: name, MonthlyFee: monthlyFeePaise, CycleMonths: 1})
}

// QuarterlyPlanJSON returns a quarterly plan definition as JSON.
func QuarterlyPlanJSON(id, name string, monthlyFeePaise int64) string {
	return planJSON(PlanJSON{ID: id, Name: name, MonthlyFee: monthlyFeePaise, CycleMonths: 3})
}

func planJSON(cfg PlanJSON) string {
	b, _ := json.Marshal(cfg)
	return string(b)
}
