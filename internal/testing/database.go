// Package testing provides shared test helpers.
package testing

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ledgershift/ledgershift/db"
)

// CreateTestDB creates a temporary SQLite test database with the full
// ledgershift schema applied. Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// File-backed rather than :memory: so the WAL pragma behaves as in production
	path := filepath.Join(t.TempDir(), "test.db")
	database, err := db.OpenWithMigrations(path, nil)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}
