package migrations

func init() {
	Register(Migration{
		Timestamp:   "20260201-000000",
		Description: "Initial schema: users, subscriptions, usage counters, streaks, conversations, messages, journal, voice sessions",
		Up: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id TEXT PRIMARY KEY,
				email TEXT NOT NULL,
				display_name TEXT NOT NULL DEFAULT '',
				companion_name TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				deleted_at TEXT
			)`,
			`CREATE INDEX IF NOT EXISTS idx_users_email ON users(email)`,

			`CREATE TABLE IF NOT EXISTS subscriptions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				stripe_subscription_id TEXT NOT NULL UNIQUE,
				stripe_customer_id TEXT NOT NULL,
				plan TEXT NOT NULL,
				status TEXT NOT NULL,
				current_period_start TEXT NOT NULL,
				current_period_end TEXT NOT NULL,
				cancel_at_period_end INTEGER NOT NULL DEFAULT 0,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_subscriptions_user_id ON subscriptions(user_id)`,
			`CREATE INDEX IF NOT EXISTS idx_subscriptions_customer ON subscriptions(stripe_customer_id)`,

			// One row per (user, resource, monthly period). Increments go
			// through an upsert so concurrent writers never lose counts.
			`CREATE TABLE IF NOT EXISTS usage_counters (
				user_id TEXT NOT NULL,
				resource TEXT NOT NULL,
				period TEXT NOT NULL,
				amount INTEGER NOT NULL DEFAULT 0,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (user_id, resource, period)
			)`,
			`CREATE INDEX IF NOT EXISTS idx_usage_counters_period ON usage_counters(period)`,

			`CREATE TABLE IF NOT EXISTS streaks (
				user_id TEXT NOT NULL,
				activity TEXT NOT NULL,
				current_streak INTEGER NOT NULL DEFAULT 0,
				longest_streak INTEGER NOT NULL DEFAULT 0,
				last_activity_date TEXT NOT NULL DEFAULT '',
				updated_at TEXT NOT NULL,
				PRIMARY KEY (user_id, activity)
			)`,

			`CREATE TABLE IF NOT EXISTS conversations (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				summary TEXT NOT NULL DEFAULT '',
				message_count INTEGER NOT NULL DEFAULT 0,
				last_message_at TEXT,
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_conversations_user_id ON conversations(user_id)`,

			`CREATE TABLE IF NOT EXISTS messages (
				id TEXT PRIMARY KEY,
				conversation_id TEXT NOT NULL,
				user_id TEXT NOT NULL,
				role TEXT NOT NULL,
				content TEXT NOT NULL,
				sentiment TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at)`,

			// body_encrypted holds AES-GCM ciphertext, base64-encoded.
			`CREATE TABLE IF NOT EXISTS journal_entries (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				entry_date TEXT NOT NULL,
				body_encrypted TEXT NOT NULL,
				sentiment TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				UNIQUE (user_id, entry_date)
			)`,

			`CREATE TABLE IF NOT EXISTS voice_sessions (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				kind TEXT NOT NULL,
				duration_seconds INTEGER NOT NULL DEFAULT 0,
				audio_key TEXT NOT NULL DEFAULT '',
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_voice_sessions_user ON voice_sessions(user_id, created_at)`,
		},
	})
}
