package migrations

func init() {
	Register(Migration{
		Timestamp:   "20260210-000000",
		Description: "Add usage_events table for idempotent usage increments",
		Up: []string{
			// One row per accepted increment. Dedup is scoped to the period:
			// the unique (user_id, event_id, period) triple makes client
			// retries no-ops within a month, and the retention sweep drops
			// old rows alongside their counters.
			`CREATE TABLE IF NOT EXISTS usage_events (
				user_id TEXT NOT NULL,
				event_id TEXT NOT NULL,
				resource TEXT NOT NULL,
				period TEXT NOT NULL,
				amount INTEGER NOT NULL,
				created_at TEXT NOT NULL,
				PRIMARY KEY (user_id, event_id, period)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_usage_events_period ON usage_events(period)`,
		},
	})
}
