package test_utils

import (
	"context"
	"database/sql"
	"testing"

	"github.com/klokku/planner/internal/config"
	"github.com/klokku/planner/internal/database"
)

// SetupTestDB creates an isolated in-memory sqlite database with all migrations applied.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.Database{Driver: database.DriverSqlite, Path: ":memory:"}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})

	if err := database.Migrate(db, cfg); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}
	return db
}

// CreateTestUser inserts a user row and returns its id.
func CreateTestUser(t *testing.T, db *sql.DB, uid string) int {
	t.Helper()

	var id int
	err := db.QueryRowContext(context.Background(),
		`INSERT INTO users (uid, username, display_name, timezone, event_calendar_type) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		uid, uid, "Test User "+uid, "UTC", "local",
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return id
}
