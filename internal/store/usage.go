package store

import (
	"context"
	"fmt"
	"time"
)

// MonthLayout is the format of UsageRecord.Month.
const MonthLayout = "2006-01"

// UsageRecord is the token accounting for one provider call.
type UsageRecord struct {
	ID            int64     `json:"id" yaml:"id"`
	Provider      string    `json:"provider" yaml:"provider"`
	Model         string    `json:"model" yaml:"model"`
	Month         string    `json:"month" yaml:"month"`
	CallCount     int       `json:"callCount" yaml:"callCount"`
	InputTokens   int       `json:"inputTokens" yaml:"inputTokens"`
	OutputTokens  int       `json:"outputTokens" yaml:"outputTokens"`
	EstimatedCost float64   `json:"estimatedCost" yaml:"estimatedCost"`
	CreatedAt     time.Time `json:"createdAt" yaml:"createdAt"`
}

// UsageTotals aggregates the records of one month.
type UsageTotals struct {
	Month         string  `json:"month" yaml:"month"`
	CallCount     int     `json:"callCount" yaml:"callCount"`
	InputTokens   int     `json:"inputTokens" yaml:"inputTokens"`
	OutputTokens  int     `json:"outputTokens" yaml:"outputTokens"`
	EstimatedCost float64 `json:"estimatedCost" yaml:"estimatedCost"`
}

// UsageStore records provider usage in SQLite.
type UsageStore struct {
	db  *DB
	now func() time.Time
}

// NewUsageStore creates a usage store using the given database.
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db, now: time.Now}
}

// Add inserts rec. Month and CreatedAt default to the current time and
// CallCount defaults to 1. The stored record is returned.
func (s *UsageStore) Add(ctx context.Context, rec UsageRecord) (UsageRecord, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC().Truncate(time.Second)
	if rec.Month == "" {
		rec.Month = rec.CreatedAt.Format(MonthLayout)
	}
	if rec.CallCount <= 0 {
		rec.CallCount = 1
	}

	res, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO usage_records (provider, model, month, call_count, input_tokens, output_tokens, estimated_cost, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Provider, rec.Model, rec.Month, rec.CallCount, rec.InputTokens, rec.OutputTokens,
		rec.EstimatedCost, rec.CreatedAt.Format(time.DateTime),
	)
	if err != nil {
		return UsageRecord{}, fmt.Errorf("inserting usage record: %w", err)
	}
	if rec.ID, err = res.LastInsertId(); err != nil {
		return UsageRecord{}, fmt.Errorf("reading usage record id: %w", err)
	}
	return rec, nil
}

// Monthly returns the records of month in insertion order.
func (s *UsageStore) Monthly(ctx context.Context, month string) ([]UsageRecord, error) {
	rows, err := s.db.sql.QueryContext(ctx,
		`SELECT id, provider, model, month, call_count, input_tokens, output_tokens, estimated_cost, created_at
		 FROM usage_records WHERE month = ? ORDER BY id`, month,
	)
	if err != nil {
		return nil, fmt.Errorf("querying usage for %s: %w", month, err)
	}
	defer rows.Close()

	var records []UsageRecord
	for rows.Next() {
		var r UsageRecord
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Provider, &r.Model, &r.Month, &r.CallCount,
			&r.InputTokens, &r.OutputTokens, &r.EstimatedCost, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning usage record: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.DateTime, createdAt)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Totals sums the records of month. A month without records yields zeros.
func (s *UsageStore) Totals(ctx context.Context, month string) (UsageTotals, error) {
	t := UsageTotals{Month: month}
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(call_count), 0), COALESCE(SUM(input_tokens), 0),
		        COALESCE(SUM(output_tokens), 0), COALESCE(SUM(estimated_cost), 0)
		 FROM usage_records WHERE month = ?`, month,
	).Scan(&t.CallCount, &t.InputTokens, &t.OutputTokens, &t.EstimatedCost)
	if err != nil {
		return UsageTotals{}, fmt.Errorf("summing usage for %s: %w", month, err)
	}
	return t, nil
}
