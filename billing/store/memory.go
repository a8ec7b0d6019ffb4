// Package store provides an in-memory implementation of the billing
// directory and payment source, for tests and demo seeding. Payments are
// append-only, matching the production store's contract.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/academyhq/fee-engine/billing"
)

// Memory holds profiles and payments in maps guarded by a RWMutex.
type Memory struct {
	mu       sync.RWMutex
	profiles map[billing.SubscriberID]billing.BillingProfile
	centers  map[billing.SubscriberID]billing.CenterID
	payments map[billing.SubscriberID][]billing.Payment
}

func NewMemory() *Memory {
	return &Memory{
		profiles: make(map[billing.SubscriberID]billing.BillingProfile),
		centers:  make(map[billing.SubscriberID]billing.CenterID),
		payments: make(map[billing.SubscriberID][]billing.Payment),
	}
}

// AddProfile registers a subscriber's billing terms under a center.
func (m *Memory) AddProfile(profile billing.BillingProfile, center billing.CenterID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[profile.SubscriberID] = profile
	m.centers[profile.SubscriberID] = center
}

// AddPayment appends a payment. Insertion order is preserved, which is
// what breaks same-day ties during allocation.
//
// A payment for an unknown subscriber registers them with a zero
// profile: no join date, no terms. Cohort listings still see them, and
// the report layer classifies them as incomplete data rather than
// treating made-up terms as real.
func (m *Memory) AddPayment(p billing.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[p.SubscriberID] = append(m.payments[p.SubscriberID], p)
	if _, ok := m.profiles[p.SubscriberID]; !ok {
		m.profiles[p.SubscriberID] = billing.BillingProfile{SubscriberID: p.SubscriberID}
	}
}

// SetChurn sets the churn date on an existing profile.
func (m *Memory) SetChurn(id billing.SubscriberID, churn billing.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.profiles[id]
	if !ok {
		return billing.ErrSubscriberNotFound
	}
	if profile.ChurnDate != nil {
		return billing.ErrAlreadyChurned
	}
	profile.ChurnDate = &churn
	profile.Active = false
	m.profiles[id] = profile
	return nil
}

// =============================================================================
// billing.Directory
// =============================================================================

func (m *Memory) GetBillingProfile(ctx context.Context, id billing.SubscriberID) (billing.BillingProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.profiles[id]
	if !ok {
		return billing.BillingProfile{}, billing.ErrSubscriberNotFound
	}
	return profile, nil
}

func (m *Memory) ListSubscribers(ctx context.Context, filter billing.CohortFilter) ([]billing.SubscriberID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []billing.SubscriberID
	for id := range m.profiles {
		if len(filter.CenterIDs) > 0 && !containsCenter(filter.CenterIDs, m.centers[id]) {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// =============================================================================
// billing.PaymentSource
// =============================================================================

func (m *Memory) ListPayments(ctx context.Context, id billing.SubscriberID) ([]billing.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]billing.Payment, len(m.payments[id]))
	copy(out, m.payments[id])
	billing.SortPaymentsByDate(out)
	return out, nil
}

func containsCenter(set []billing.CenterID, c billing.CenterID) bool {
	for _, x := range set {
		if x == c {
			return true
		}
	}
	return false
}

var (
	_ billing.Directory     = (*Memory)(nil)
	_ billing.PaymentSource = (*Memory)(nil)
)
