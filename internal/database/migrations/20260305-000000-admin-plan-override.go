package migrations

func init() {
	Register(Migration{
		Timestamp:   "20260305-000000",
		Description: "Add is_admin flag and plan_override for support-granted access",
		Up: []string{
			`ALTER TABLE users ADD COLUMN is_admin INTEGER NOT NULL DEFAULT 0`,
			// Non-empty plan_override takes precedence over the Stripe
			// subscription when resolving a user's plan.
			`ALTER TABLE users ADD COLUMN plan_override TEXT NOT NULL DEFAULT ''`,
		},
	})
}
