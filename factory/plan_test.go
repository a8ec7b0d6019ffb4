/*
plan_test.go - Fee-plan parsing and expansion tests

TESTS:
  1. Valid JSON parses into a plan whose ProfileFor output passes
     billing validation
  2. Defaulting (name falls back to id)
  3. Rejection of malformed JSON and out-of-range fields
  4. Presets round-trip through ParsePlan
*/
package factory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/academyhq/fee-engine/billing"
	"github.com/academyhq/fee-engine/factory"
)

func TestParsePlan_QuarterlyDefinition(t *testing.T) {
	pf := factory.NewPlanFactory()

	plan, err := pf.ParsePlan(`{
		"id": "u14-quarterly",
		"name": "Under-14 Quarterly",
		"monthly_fee": 150000,
		"cycle_months": 3
	}`)
	require.NoError(t, err)

	assert.Equal(t, billing.PlanID("u14-quarterly"), plan.ID)
	assert.Equal(t, "Under-14 Quarterly", plan.Name)
	assert.Equal(t, billing.Paise(150000), plan.MonthlyFee)
	assert.Equal(t, 3, plan.CycleMonths)
}

func TestParsePlan_NameDefaultsToID(t *testing.T) {
	pf := factory.NewPlanFactory()

	plan, err := pf.ParsePlan(`{"id": "basic", "monthly_fee": 100000, "cycle_months": 1}`)
	require.NoError(t, err)
	assert.Equal(t, "basic", plan.Name)
}

func TestParsePlan_Rejections(t *testing.T) {
	pf := factory.NewPlanFactory()

	cases := []struct {
		name   string
		config string
	}{
		{"malformed JSON", `{"id": "x"`},
		{"missing id", `{"monthly_fee": 1000, "cycle_months": 1}`},
		{"negative fee", `{"id": "x", "monthly_fee": -1, "cycle_months": 1}`},
		{"zero cycle", `{"id": "x", "monthly_fee": 1000, "cycle_months": 0}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pf.ParsePlan(tc.config)
			assert.Error(t, err)
		})
	}
}

func TestProfileFor_ExpandsToValidTerms(t *testing.T) {
	pf := factory.NewPlanFactory()
	plan, err := pf.ParsePlan(factory.QuarterlyPlanJSON("q", "Quarterly", 100000))
	require.NoError(t, err)

	join := billing.NewDate(2024, time.June, 10)
	profile := plan.ProfileFor("sub-123", join)

	require.NoError(t, profile.Validate())
	assert.Equal(t, billing.SubscriberID("sub-123"), profile.SubscriberID)
	assert.Equal(t, join, profile.JoinDate)
	assert.Equal(t, billing.Paise(100000), profile.MonthlyFee)
	assert.Equal(t, 3, profile.CycleMonths)
	assert.True(t, profile.Active)
	assert.Nil(t, profile.ChurnDate)
}

func TestPresets_RoundTrip(t *testing.T) {
	pf := factory.NewPlanFactory()

	monthly, err := pf.ParsePlan(factory.MonthlyPlanJSON("m", "Monthly", 50000))
	require.NoError(t, err)
	assert.Equal(t, 1, monthly.CycleMonths)

	quarterly, err := pf.ParsePlan(factory.QuarterlyPlanJSON("q", "Quarterly", 50000))
	require.NoError(t, err)
	assert.Equal(t, 3, quarterly.CycleMonths)
}
