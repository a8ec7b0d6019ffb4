/*
scenarios_test.go - Unit tests for demo scenarios

PURPOSE:
	Tests that the demo scenario sets up the expected state:
	- Plan, subscribers, and payments are created
	- Balances under the paired clock override match expected values
	- The payments-only record surfaces as skipped, not as an error

These tests double as integration tests for the store and report paths.
*/
package api

import (
	"context"
	"testing"
	"time"

	"github.com/academyhq/fee-engine/billing"
)

func TestScenario_AcademyDemo(t *testing.T) {
	// GIVEN: The academy-demo scenario
	// WHEN: Loading it
	// THEN: Plan, subscribers, and payments should be created correctly

	h := setupTestHandler(t)
	ctx := context.Background()

	if err := h.loadAcademyDemo(ctx); err != nil {
		t.Fatalf("Failed to load academy-demo scenario: %v", err)
	}

	// Verify the plan exists
	rec, err := h.Store.GetPlan(ctx, "demo-monthly")
	if err != nil {
		t.Fatalf("Failed to get plan: %v", err)
	}
	if rec.Name != "Demo Monthly" {
		t.Errorf("Expected plan name 'Demo Monthly', got '%s'", rec.Name)
	}

	// Verify all five subscribers exist
	subs, err := h.Store.ListAll(ctx, billing.CohortFilter{})
	if err != nil {
		t.Fatalf("Failed to list subscribers: %v", err)
	}
	if len(subs) != 5 {
		t.Fatalf("Expected 5 subscribers, got %d", len(subs))
	}

	// Churned subscriber carries a churn date and is inactive
	churned, err := h.Store.GetSubscriber(ctx, "demo-churned")
	if err != nil {
		t.Fatalf("Failed to get churned subscriber: %v", err)
	}
	if churned.Profile.ChurnDate == nil {
		t.Fatal("Expected demo-churned to carry a churn date")
	}
	if churned.Profile.Active {
		t.Error("Churned subscriber should be inactive")
	}

	// The payments-only record has cash but no join date
	orphan, err := h.Store.GetSubscriber(ctx, "demo-noterms")
	if err != nil {
		t.Fatalf("Failed to get demo-noterms: %v", err)
	}
	if orphan.Profile.Enrolled() {
		t.Error("demo-noterms should have no join date")
	}
	payments, err := h.Store.ListPayments(ctx, "demo-noterms")
	if err != nil {
		t.Fatalf("Failed to list payments: %v", err)
	}
	if len(payments) != 1 {
		t.Errorf("Expected 1 payment for demo-noterms, got %d", len(payments))
	}
}

func TestScenario_BalancesUnderPairedClock(t *testing.T) {
	// GIVEN: The scenario plus its documented clock override
	h := setupTestHandler(t)
	ctx := context.Background()

	if err := h.loadAcademyDemo(ctx); err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}
	h.Clock.SetOverride(billing.NewDate(2024, time.June, 15))

	// WHEN: Running the cohort summary
	summary, err := h.Reporter.CohortSummary(ctx, billing.CohortFilter{})
	if err != nil {
		t.Fatalf("Failed to run summary: %v", err)
	}

	// THEN: Six months accrued for everyone but the March churner.
	// ontime: 600000 due, 300000 paid -> owes 300000
	// arrears: 600000 due, 250000 paid -> owes 350000
	// prepaid: 600000 due, 500000 paid -> owes 100000
	// churned: 300000 due (stops at March 31), 300000 paid -> settled
	if summary.OutstandingTotal != 750000 {
		t.Errorf("Expected outstanding 750000, got %d", summary.OutstandingTotal)
	}
	if summary.CreditTotal != 0 {
		t.Errorf("Expected credit 0, got %d", summary.CreditTotal)
	}
	if summary.TotalCollected != 1400000 {
		t.Errorf("Expected collected 1400000, got %d", summary.TotalCollected)
	}

	// The payments-only record is skipped, never fatal
	if len(summary.Skipped) != 1 {
		t.Fatalf("Expected 1 skipped subscriber, got %d", len(summary.Skipped))
	}
	if summary.Skipped[0].SubscriberID != "demo-noterms" {
		t.Errorf("Expected demo-noterms skipped, got %s", summary.Skipped[0].SubscriberID)
	}
}
