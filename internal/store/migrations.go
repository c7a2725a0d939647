package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create usage records",
		SQL: `
			CREATE TABLE usage_records (
				id             INTEGER PRIMARY KEY AUTOINCREMENT,
				provider       TEXT NOT NULL,
				model          TEXT NOT NULL,
				month          TEXT NOT NULL,
				call_count     INTEGER NOT NULL DEFAULT 1,
				input_tokens   INTEGER NOT NULL DEFAULT 0,
				output_tokens  INTEGER NOT NULL DEFAULT 0,
				estimated_cost REAL NOT NULL DEFAULT 0,
				created_at     TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_usage_month ON usage_records (month, provider, model);
		`,
	},
	{
		Version: 2,
		Name:    "create tool call audit",
		SQL: `
			CREATE TABLE tool_call_audit (
				id          INTEGER PRIMARY KEY AUTOINCREMENT,
				session_id  TEXT NOT NULL,
				message_id  TEXT NOT NULL,
				skill       TEXT NOT NULL,
				parameters  TEXT NOT NULL DEFAULT '{}',
				status      TEXT NOT NULL,
				success     INTEGER,
				error       TEXT NOT NULL DEFAULT '',
				decided_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE INDEX idx_audit_session ON tool_call_audit (session_id, id);
			CREATE INDEX idx_audit_skill ON tool_call_audit (skill);
		`,
	},
}
