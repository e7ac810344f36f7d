// Package testutil holds helpers shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"studentrecords/internal/config"
	"studentrecords/internal/database"
)

// Logger returns a logger that drops everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OpenDB returns a migrated SQLite database living in the test's temp dir.
// It is closed when the test ends.
func OpenDB(t *testing.T) *sql.DB {
	t.Helper()

	cfg := config.Default().Database
	cfg.Driver = config.DriverSQLite
	cfg.Path = filepath.Join(t.TempDir(), "records.db")
	cfg.MaxOpenConns = 4
	cfg.MaxIdleConns = 4

	log := Logger()
	if err := database.Migrate(cfg, log); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db, err := database.Open(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
