/*
Package sqlite provides the SQLite-backed subscriber, payment, and plan store.

PURPOSE:
  Implements the persistence behind the billing engine's external
  collaborators (billing.Directory, billing.PaymentSource) plus the write
  paths the API needs: enrolling subscribers, recording payments, storing
  fee plans. In production the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

APPEND-ONLY PAYMENTS:
  The payments table is append-only:
  - No UPDATE statements on payments
  - No DELETE statements on payments
  - Corrections are superseding records handled upstream; the engine
    simply re-reads the updated list.

KEY TABLES:
  subscribers: directory rows with billing terms (join/churn, fee, cycle)
  payments:    immutable cash receipts, seq column preserves insertion
               order so same-day payments allocate deterministically
  plans:       fee plan definitions, config stored as JSON

WAL MODE:
  SQLite is opened with WAL for better concurrency: multiple readers
  don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/academy.db")   // ":memory:" for tests
  if err != nil { log.Fatal(err) }
  defer store.Close()

  reporter := report.NewReporter(store, store, clock)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a versioned
  migration tool.

SEE ALSO:
  - billing/store.go: Interface definitions
  - billing/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/academyhq/fee-engine/billing"
)

// Store implements billing.Directory and billing.PaymentSource over SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	-- Subscriber directory with billing terms
	CREATE TABLE IF NOT EXISTS subscribers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		center_id TEXT NOT NULL,
		join_date TEXT,
		churn_date TEXT,
		monthly_fee INTEGER NOT NULL DEFAULT 0,
		cycle_months INTEGER NOT NULL DEFAULT 1,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_subscribers_center ON subscribers(center_id);

	-- Payments (append-only; seq preserves insertion order for ties)
	CREATE TABLE IF NOT EXISTS payments (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		subscriber_id TEXT NOT NULL REFERENCES subscribers(id),
		amount INTEGER NOT NULL CHECK (amount > 0),
		paid_on TEXT NOT NULL,
		mode TEXT NOT NULL,
		reference TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_payments_subscriber_date ON payments(subscriber_id, paid_on, seq);

	-- Fee plans (config stored as JSON)
	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		config_json TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// SUBSCRIBERS
// =============================================================================

// Subscriber is a directory row: identity plus billing terms.
type Subscriber struct {
	ID       billing.SubscriberID
	Name     string
	CenterID billing.CenterID
	Profile  billing.BillingProfile
}

// SaveSubscriber inserts or replaces a subscriber row.
func (s *Store) SaveSubscriber(ctx context.Context, sub Subscriber) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO subscribers
			(id, name, center_id, join_date, churn_date, monthly_fee, cycle_months, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(sub.ID), sub.Name, string(sub.CenterID),
		dateOrNull(sub.Profile.JoinDate),
		datePtrOrNull(sub.Profile.ChurnDate),
		int64(sub.Profile.MonthlyFee), sub.Profile.CycleMonths,
		boolToInt(sub.Profile.Active),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// GetSubscriber returns one directory row.
func (s *Store) GetSubscriber(ctx context.Context, id billing.SubscriberID) (Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, center_id, join_date, churn_date, monthly_fee, cycle_months, active
		FROM subscribers WHERE id = ?`, string(id))
	return scanSubscriber(row)
}

// ListAll returns every subscriber matching the filter's centers, ordered by id.
func (s *Store) ListAll(ctx context.Context, filter billing.CohortFilter) ([]Subscriber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, name, center_id, join_date, churn_date, monthly_fee, cycle_months, active
		FROM subscribers`
	args := []any{}
	if len(filter.CenterIDs) > 0 {
		placeholders := make([]string, len(filter.CenterIDs))
		for i, c := range filter.CenterIDs {
			placeholders[i] = "?"
			args = append(args, string(c))
		}
		query += " WHERE center_id IN (" + strings.Join(placeholders, ",") + ")"
	}
	query += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscriber
	for rows.Next() {
		sub, err := scanSubscriber(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// SetChurnDate sets the churn date once. A second churn is rejected.
func (s *Store) SetChurnDate(ctx context.Context, id billing.SubscriberID, churn billing.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE subscribers SET churn_date = ?, active = 0
		WHERE id = ? AND churn_date IS NULL`,
		churn.String(), string(id))
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// distinguish "missing" from "already churned"
		var exists int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(1) FROM subscribers WHERE id = ?`, string(id)).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return billing.ErrSubscriberNotFound
		}
		return billing.ErrAlreadyChurned
	}
	return nil
}

// =============================================================================
// billing.Directory
// =============================================================================

func (s *Store) GetBillingProfile(ctx context.Context, id billing.SubscriberID) (billing.BillingProfile, error) {
	sub, err := s.GetSubscriber(ctx, id)
	if err != nil {
		return billing.BillingProfile{}, err
	}
	return sub.Profile, nil
}

func (s *Store) ListSubscribers(ctx context.Context, filter billing.CohortFilter) ([]billing.SubscriberID, error) {
	subs, err := s.ListAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]billing.SubscriberID, len(subs))
	for i, sub := range subs {
		ids[i] = sub.ID
	}
	return ids, nil
}

// =============================================================================
// PAYMENTS - Append-only
// =============================================================================

// RecordPayment appends a payment. Re-submitting an existing payment ID
// returns billing.ErrDuplicatePayment.
func (s *Store) RecordPayment(ctx context.Context, p billing.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (id, subscriber_id, amount, paid_on, mode, reference, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID), string(p.SubscriberID), int64(p.Amount),
		p.PaidOn.String(), string(p.Mode), p.Reference, p.Notes,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return billing.ErrDuplicatePayment
	}
	return err
}

// ListPayments returns a subscriber's payments ascending by payment
// date, insertion order breaking ties (billing.PaymentSource).
func (s *Store) ListPayments(ctx context.Context, id billing.SubscriberID) ([]billing.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, subscriber_id, amount, paid_on, mode, reference, notes
		FROM payments WHERE subscriber_id = ?
		ORDER BY paid_on, seq`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []billing.Payment
	for rows.Next() {
		var idStr, subID, paidOn, mode string
		var amount int64
		var reference, notes sql.NullString
		if err := rows.Scan(&idStr, &subID, &amount, &paidOn, &mode, &reference, &notes); err != nil {
			return nil, err
		}
		day, err := billing.ParseDate(paidOn)
		if err != nil {
			return nil, err
		}
		pay := billing.Payment{
			ID:           billing.PaymentID(idStr),
			SubscriberID: billing.SubscriberID(subID),
			Amount:       billing.Paise(amount),
			PaidOn:       day,
			Mode:         billing.PaymentMode(mode),
			Reference:    reference.String,
			Notes:        notes.String,
		}
		payments = append(payments, pay)
	}
	return payments, rows.Err()
}

// =============================================================================
// PLANS
// =============================================================================

// PlanRecord is a stored fee plan definition.
type PlanRecord struct {
	ID         billing.PlanID
	Name       string
	ConfigJSON string
}

func (s *Store) SavePlan(ctx context.Context, rec PlanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO plans (id, name, config_json, created_at)
		VALUES (?, ?, ?, ?)`,
		string(rec.ID), rec.Name, rec.ConfigJSON,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetPlan(ctx context.Context, id billing.PlanID) (PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec PlanRecord
	var idStr string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, config_json FROM plans WHERE id = ?`, string(id)).
		Scan(&idStr, &rec.Name, &rec.ConfigJSON)
	if err == sql.ErrNoRows {
		return PlanRecord{}, billing.ErrPlanNotFound
	}
	if err != nil {
		return PlanRecord{}, err
	}
	rec.ID = billing.PlanID(idStr)
	return rec, nil
}

func (s *Store) ListPlans(ctx context.Context) ([]PlanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, config_json FROM plans ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []PlanRecord
	for rows.Next() {
		var rec PlanRecord
		var idStr string
		if err := rows.Scan(&idStr, &rec.Name, &rec.ConfigJSON); err != nil {
			return nil, err
		}
		rec.ID = billing.PlanID(idStr)
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubscriber(row rowScanner) (Subscriber, error) {
	var (
		idStr, name, centerID string
		joinDate, churnDate   sql.NullString
		monthlyFee            int64
		cycleMonths, active   int
	)
	err := row.Scan(&idStr, &name, &centerID, &joinDate, &churnDate, &monthlyFee, &cycleMonths, &active)
	if err == sql.ErrNoRows {
		return Subscriber{}, billing.ErrSubscriberNotFound
	}
	if err != nil {
		return Subscriber{}, err
	}

	profile := billing.BillingProfile{
		SubscriberID: billing.SubscriberID(idStr),
		MonthlyFee:   billing.Paise(monthlyFee),
		CycleMonths:  cycleMonths,
		Active:       active == 1,
	}
	if joinDate.Valid && joinDate.String != "" {
		d, err := billing.ParseDate(joinDate.String)
		if err != nil {
			return Subscriber{}, err
		}
		profile.JoinDate = d
	}
	if churnDate.Valid && churnDate.String != "" {
		d, err := billing.ParseDate(churnDate.String)
		if err != nil {
			return Subscriber{}, err
		}
		profile.ChurnDate = &d
	}

	return Subscriber{
		ID:       billing.SubscriberID(idStr),
		Name:     name,
		CenterID: billing.CenterID(centerID),
		Profile:  profile,
	}, nil
}

func dateOrNull(d billing.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func datePtrOrNull(d *billing.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var (
	_ billing.Directory     = (*Store)(nil)
	_ billing.PaymentSource = (*Store)(nil)
)
