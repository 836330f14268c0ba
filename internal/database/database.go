// Package database opens the libsql store and applies schema migrations.
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tursodatabase/go-libsql"

	"github.com/jmylchreest/kindred-api/internal/database/migrations"
)

// New opens a libsql connection for the given DSN. With TURSO_URL and
// TURSO_AUTH_TOKEN set, the local file becomes an embedded replica synced
// against Turso cloud; otherwise the DSN is opened directly (a local file,
// or http://127.0.0.1:8080 against `turso dev`).
func New(dsn string) (*sql.DB, error) {
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func open(dsn string) (*sql.DB, error) {
	url := os.Getenv("TURSO_URL")
	token := os.Getenv("TURSO_AUTH_TOKEN")
	if url == "" || token == "" {
		db, err := sql.Open("libsql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return db, nil
	}

	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	connector, err := libsql.NewEmbeddedReplicaConnector(path, url,
		libsql.WithAuthToken(token),
		libsql.WithReadYourWrites(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create turso connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// MigrateWithLogger applies pending migrations, logging each one.
// Note: identity lives in Clerk; user rows here mirror Clerk accounts and
// user_id columns hold Clerk user IDs (e.g., "user_xxx").
func MigrateWithLogger(db *sql.DB, logger *slog.Logger) error {
	return migrations.Run(db, logger)
}

// GetAppliedMigrations reports which migrations have been applied, in order.
func GetAppliedMigrations(db *sql.DB) ([]migrations.AppliedMigration, error) {
	return migrations.GetAppliedMigrations(db)
}
