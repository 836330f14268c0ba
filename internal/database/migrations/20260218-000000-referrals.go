package migrations

func init() {
	Register(Migration{
		Timestamp:   "20260218-000000",
		Description: "Add referral codes and redemption tracking",
		Up: []string{
			`ALTER TABLE users ADD COLUMN referral_code TEXT NOT NULL DEFAULT ''`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_referral_code ON users(referral_code) WHERE referral_code != ''`,

			// referred_id is unique: an account can only be referred once.
			`CREATE TABLE IF NOT EXISTS referral_redemptions (
				id TEXT PRIMARY KEY,
				code TEXT NOT NULL,
				referrer_id TEXT NOT NULL,
				referred_id TEXT NOT NULL UNIQUE,
				created_at TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_referral_redemptions_referrer ON referral_redemptions(referrer_id)`,
		},
	})
}
