package store

import (
	"context"
	"testing"
	"time"

	"github.com/soyeahso/wawa/internal/domain"
	"github.com/soyeahso/wawa/internal/hooks"
	"github.com/soyeahso/wawa/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	log := logging.New(nil, "silent")
	db, err := Open(":memory:", log)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// --- DB/Migration tests ---

func TestOpen_InMemory(t *testing.T) {
	db := testDB(t)
	assert.NotNil(t, db)
	assert.NotNil(t, db.SQL())
}

func TestOpen_File(t *testing.T) {
	path := t.TempDir() + "/nested/wawa.db"
	db, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening an existing file applies nothing new.
	db, err = Open(path, nil)
	require.NoError(t, err)
	defer db.Close()
	var count int
	require.NoError(t, db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Applied(t *testing.T) {
	db := testDB(t)

	var count int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestMigrations_Idempotent(t *testing.T) {
	db := testDB(t)

	// Running migrate again should be a no-op
	err := db.migrate()
	require.NoError(t, err)

	var count int
	err = db.sql.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, len(migrations), count)
}

func TestSchema_TablesExist(t *testing.T) {
	db := testDB(t)

	tables := []string{"usage_records", "tool_call_audit"}
	for _, table := range tables {
		var name string
		err := db.sql.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

// --- Usage store tests ---

func TestUsageStore_AddDefaults(t *testing.T) {
	us := NewUsageStore(testDB(t))
	us.now = func() time.Time { return time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC) }

	rec, err := us.Add(context.Background(), UsageRecord{
		Provider:      "gemini",
		Model:         "gemini-2.5-flash",
		InputTokens:   1200,
		OutputTokens:  300,
		EstimatedCost: 0.00036,
	})
	require.NoError(t, err)
	assert.NotZero(t, rec.ID)
	assert.Equal(t, "2026-02", rec.Month)
	assert.Equal(t, 1, rec.CallCount)

	records, err := us.Monthly(context.Background(), "2026-02")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, rec, records[0])
}

func TestUsageStore_MonthlyAndTotals(t *testing.T) {
	us := NewUsageStore(testDB(t))
	ctx := context.Background()

	add := func(month, model string, in, out int, cost float64) {
		_, err := us.Add(ctx, UsageRecord{Provider: "gemini", Model: model, Month: month,
			InputTokens: in, OutputTokens: out, EstimatedCost: cost})
		require.NoError(t, err)
	}
	add("2026-01", "gemini-2.5-flash", 100, 10, 0.5)
	add("2026-02", "gemini-2.5-flash", 200, 20, 1.0)
	add("2026-02", "gemini-2.0-flash", 300, 30, 1.5)

	records, err := us.Monthly(ctx, "2026-02")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "gemini-2.5-flash", records[0].Model)
	assert.Equal(t, "gemini-2.0-flash", records[1].Model)

	totals, err := us.Totals(ctx, "2026-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-02", totals.Month)
	assert.Equal(t, 2, totals.CallCount)
	assert.Equal(t, 500, totals.InputTokens)
	assert.Equal(t, 50, totals.OutputTokens)
	assert.InDelta(t, 2.5, totals.EstimatedCost, 1e-9)
}

func TestUsageStore_EmptyMonth(t *testing.T) {
	us := NewUsageStore(testDB(t))

	records, err := us.Monthly(context.Background(), "2030-01")
	require.NoError(t, err)
	assert.Empty(t, records)

	totals, err := us.Totals(context.Background(), "2030-01")
	require.NoError(t, err)
	assert.Equal(t, UsageTotals{Month: "2030-01"}, totals)
}

// --- Audit store tests ---

func TestAuditStore_RecordAndList(t *testing.T) {
	as := NewAuditStore(testDB(t))
	ctx := context.Background()

	_, err := as.Record(ctx, AuditEntry{
		SessionID:  "s1",
		MessageID:  "m1",
		Skill:      "makeup.schedule",
		Parameters: map[string]any{"studentName": "홍길동"},
		Status:     "confirmed",
	})
	require.NoError(t, err)

	ok := false
	_, err = as.Record(ctx, AuditEntry{
		SessionID: "s1",
		MessageID: "m1",
		Skill:     "makeup.schedule",
		Status:    "executed",
		Success:   &ok,
		Error:     "student not found",
	})
	require.NoError(t, err)
	_, err = as.Record(ctx, AuditEntry{SessionID: "s2", MessageID: "m9", Skill: "dm.send", Status: "rejected"})
	require.NoError(t, err)

	entries, err := as.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "confirmed", entries[0].Status)
	assert.Nil(t, entries[0].Success)
	assert.Equal(t, "홍길동", entries[0].Parameters["studentName"])
	require.NotNil(t, entries[1].Success)
	assert.False(t, *entries[1].Success)
	assert.Equal(t, "student not found", entries[1].Error)
	assert.Empty(t, entries[1].Parameters)

	all, err := as.List(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := as.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestAttachAudit(t *testing.T) {
	as := NewAuditStore(testDB(t))
	h := hooks.NewManager(logging.New(nil, "silent"))
	AttachAudit(h, as)
	ctx := context.Background()

	msg := domain.ChatMessage{
		ID:   "m1",
		Role: domain.RoleAssistant,
		ToolCall: &domain.ToolCall{
			SkillName:  "report.getStatus",
			Parameters: map[string]any{"yearMonth": "2026-02"},
			Status:     domain.StatusExecuted,
			Result:     &domain.SkillResult{Success: true},
		},
	}
	h.Emit(ctx, hooks.EventToolCallExecuted, map[string]any{"sessionId": "s1", "message": msg})
	h.Emit(ctx, hooks.EventMessageAppended, map[string]any{"sessionId": "s1", "message": msg})

	entries, err := as.List(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "executed", entries[0].Status)
	require.NotNil(t, entries[0].Success)
	assert.True(t, *entries[0].Success)

	DetachAudit(h)
	h.Emit(ctx, hooks.EventToolCallExecuted, map[string]any{"sessionId": "s1", "message": msg})
	entries, err = as.List(ctx, "s1", 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
