package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"studentrecords/internal/config"
	"studentrecords/internal/database"
	"studentrecords/internal/testutil"
)

func sqliteConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	cfg := config.Default().Database
	cfg.Driver = config.DriverSQLite
	cfg.Path = filepath.Join(t.TempDir(), "migrate.db")
	return cfg
}

func TestMigrateUpDown(t *testing.T) {
	cfg := sqliteConfig(t)
	log := testutil.Logger()

	mg, err := database.NewMigrator(cfg, log)
	if err != nil {
		t.Fatalf("NewMigrator: %v", err)
	}
	defer mg.Close()

	if err := mg.Up(); err != nil {
		t.Fatalf("Up: %v", err)
	}
	v, dirty, err := mg.Version()
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if v != 2 || dirty {
		t.Errorf("version = %d dirty=%v, want 2 clean", v, dirty)
	}

	// Running again is a no-op.
	if err := mg.Up(); err != nil {
		t.Fatalf("second Up: %v", err)
	}

	if err := mg.Down(1); err != nil {
		t.Fatalf("Down: %v", err)
	}
	if v, _, _ := mg.Version(); v != 1 {
		t.Errorf("version after Down(1) = %d, want 1", v)
	}
}

func TestOpenCreatesUsableSchema(t *testing.T) {
	cfg := sqliteConfig(t)
	log := testutil.Logger()

	if err := database.Migrate(cfg, log); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	db, err := database.Open(context.Background(), cfg, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer database.Close(db, log)

	for _, table := range []string{"users", "students"} {
		var n int
		if err := db.QueryRow(`SELECT COUNT(*) FROM ` + table).Scan(&n); err != nil {
			t.Errorf("query %s: %v", table, err)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	cfg := config.Default().Database
	cfg.Driver = "oracle"
	if _, err := database.Open(context.Background(), cfg, testutil.Logger()); err == nil {
		t.Error("expected error for unknown driver")
	}
}
