package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"studentrecords/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

func migrationsDir(driver string) string {
	if driver == config.DriverSQLite {
		return "migrations/sqlite"
	}
	return "migrations/postgres"
}

// Migrator applies the embedded schema migrations. It owns its own
// connection, which Close releases.
type Migrator struct {
	m   *migrate.Migrate
	log *slog.Logger
}

func NewMigrator(cfg config.DatabaseConfig, log *slog.Logger) (*Migrator, error) {
	name, err := driverName(cfg.Driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(name, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("migrate: open: %w", err)
	}

	var target migratedb.Driver
	switch cfg.Driver {
	case config.DriverSQLite:
		target, err = sqlite.WithInstance(db, &sqlite.Config{})
	default:
		target, err = postgres.WithInstance(db, &postgres.Config{})
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: database driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, migrationsDir(cfg.Driver))
	if err != nil {
		target.Close()
		return nil, fmt.Errorf("migrate: source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, cfg.Driver, target)
	if err != nil {
		source.Close()
		target.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Migrator{m: m, log: log}, nil
}

func (mg *Migrator) Up() error {
	err := mg.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		mg.log.Info("schema up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	mg.logVersion("schema migrated")
	return nil
}

// Down rolls back steps migrations.
func (mg *Migrator) Down(steps int) error {
	err := mg.m.Steps(-steps)
	if errors.Is(err, migrate.ErrNoChange) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate down: %w", err)
	}
	mg.logVersion("schema rolled back")
	return nil
}

func (mg *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (mg *Migrator) logVersion(msg string) {
	v, dirty, err := mg.Version()
	if err != nil {
		mg.log.Warn(msg, "version_error", err)
		return
	}
	mg.log.Info(msg, "version", v, "dirty", dirty)
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

// Migrate brings the schema of the configured database up to date.
func Migrate(cfg config.DatabaseConfig, log *slog.Logger) error {
	mg, err := NewMigrator(cfg, log)
	if err != nil {
		return err
	}
	defer mg.Close()
	return mg.Up()
}
