package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// AuditEntry records a decision on a tool call: its confirmation, rejection,
// or execution outcome.
type AuditEntry struct {
	ID         int64          `json:"id"`
	SessionID  string         `json:"sessionId"`
	MessageID  string         `json:"messageId"`
	Skill      string         `json:"skill"`
	Parameters map[string]any `json:"parameters"`
	Status     string         `json:"status"`
	// Success is nil until the call has been executed.
	Success   *bool     `json:"success,omitempty"`
	Error     string    `json:"error,omitempty"`
	DecidedAt time.Time `json:"decidedAt"`
}

// AuditStore keeps the tool-call audit trail.
type AuditStore struct {
	db  *DB
	now func() time.Time
}

// NewAuditStore creates an audit store using the given database.
func NewAuditStore(db *DB) *AuditStore {
	return &AuditStore{db: db, now: time.Now}
}

// Record appends e to the trail and returns it with ID and DecidedAt set.
func (s *AuditStore) Record(ctx context.Context, e AuditEntry) (AuditEntry, error) {
	if e.DecidedAt.IsZero() {
		e.DecidedAt = s.now()
	}
	e.DecidedAt = e.DecidedAt.UTC().Truncate(time.Second)

	params := e.Parameters
	if params == nil {
		params = map[string]any{}
	}
	data, err := json.Marshal(params)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("marshaling parameters: %w", err)
	}

	var success sql.NullBool
	if e.Success != nil {
		success = sql.NullBool{Bool: *e.Success, Valid: true}
	}

	res, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO tool_call_audit (session_id, message_id, skill, parameters, status, success, error, decided_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.SessionID, e.MessageID, e.Skill, string(data), e.Status, success, e.Error,
		e.DecidedAt.Format(time.DateTime),
	)
	if err != nil {
		return AuditEntry{}, fmt.Errorf("inserting audit entry: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return AuditEntry{}, fmt.Errorf("reading audit entry id: %w", err)
	}
	return e, nil
}

// List returns the audit entries of a session oldest first. An empty
// sessionID lists every entry; limit <= 0 means no limit.
func (s *AuditStore) List(ctx context.Context, sessionID string, limit int) ([]AuditEntry, error) {
	query := `SELECT id, session_id, message_id, skill, parameters, status, success, error, decided_at
		FROM tool_call_audit`
	var args []any
	if sessionID != "" {
		query += " WHERE session_id = ?"
		args = append(args, sessionID)
	}
	query += " ORDER BY id"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit entries: %w", err)
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		var params, decidedAt string
		var success sql.NullBool
		if err := rows.Scan(&e.ID, &e.SessionID, &e.MessageID, &e.Skill, &params,
			&e.Status, &success, &e.Error, &decidedAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if err := json.Unmarshal([]byte(params), &e.Parameters); err != nil {
			return nil, fmt.Errorf("decoding parameters of audit entry %d: %w", e.ID, err)
		}
		if success.Valid {
			ok := success.Bool
			e.Success = &ok
		}
		e.DecidedAt, _ = time.Parse(time.DateTime, decidedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
