/*
clock.go - Overridable "as-of" date source

PURPOSE:
  Every accrual question is relative to a reference date. That date must
  be overridable - for tests, for historical replay, for backfills -
  independently of wall-clock time, and it must never be read from ambient
  global state inside the pure functions. Accrue and Allocate take dates
  as arguments; the Clock only exists at the composition boundary.

SNAPSHOT RULE:
  A cohort-level report reads the clock ONCE and reuses that date for
  every subscriber in the run. Two subscribers evaluated a millisecond
  apart must not see different "as-of" dates within one report.

OVERRIDE LIFECYCLE:
  The override is explicit process-wide configuration with a set/clear
  contract, exposed to operators via the admin API:

    clock.SetOverride(billing.NewDate(2024, time.March, 1))
    defer clock.ClearOverride()
*/
package billing

import (
	"sync"
	"time"
)

// Clock supplies the reference date for accrual computations.
type Clock interface {
	Today() Date
}

// =============================================================================
// SYSTEM CLOCK - Wall clock with an explicit process-wide override
// =============================================================================

// SystemClock returns the wall-clock date unless an override is set.
// Safe for concurrent use.
type SystemClock struct {
	mu       sync.RWMutex
	override *Date
}

func NewSystemClock() *SystemClock { return &SystemClock{} }

func (c *SystemClock) Today() Date {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.override != nil {
		return *c.override
	}
	return DateOf(time.Now().UTC())
}

// SetOverride pins the reported date until ClearOverride is called.
func (c *SystemClock) SetOverride(d Date) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = &d
}

// ClearOverride restores wall-clock behavior.
func (c *SystemClock) ClearOverride() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.override = nil
}

// Overridden reports whether an override is active, and its value.
func (c *SystemClock) Overridden() (Date, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.override == nil {
		return Date{}, false
	}
	return *c.override, true
}

// =============================================================================
// FIXED CLOCK - Constant date for tests and historical replay
// =============================================================================

// FixedClock always reports the same date.
type FixedClock struct {
	Day Date
}

func (c FixedClock) Today() Date { return c.Day }
