package repository

import (
	"database/sql"
	"testing"

	"github.com/jmylchreest/kindred-api/internal/database/migrations"
	_ "github.com/tursodatabase/go-libsql"
)

// setupTestDB creates an in-memory SQLite database for testing.
// It runs migrations and returns a database connection that will be cleaned up
// when the test completes.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// setupTestRepos creates all repositories using a test database.
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db := setupTestDB(t)
	return NewRepositories(db)
}

// InsertTestUser is a helper to insert a user row directly.
func InsertTestUser(t *testing.T, db *sql.DB, id, email string) {
	t.Helper()
	query := `
		INSERT INTO users (id, email, display_name, companion_name, created_at, updated_at)
		VALUES (?, ?, 'Test User', 'Aria', datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(query, id, email); err != nil {
		t.Fatalf("failed to insert test user: %v", err)
	}
}

// InsertTestConversation is a helper to insert a conversation row directly.
func InsertTestConversation(t *testing.T, db *sql.DB, id, userID, title string) {
	t.Helper()
	query := `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES (?, ?, ?, datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(query, id, userID, title); err != nil {
		t.Fatalf("failed to insert test conversation: %v", err)
	}
}

// InsertTestCounter is a helper to insert a usage counter row directly.
func InsertTestCounter(t *testing.T, db *sql.DB, userID, resource, period string, amount int64) {
	t.Helper()
	query := `
		INSERT INTO usage_counters (user_id, resource, period, amount, updated_at)
		VALUES (?, ?, ?, ?, datetime('now'))
	`
	if _, err := db.Exec(query, userID, resource, period, amount); err != nil {
		t.Fatalf("failed to insert test counter: %v", err)
	}
}
