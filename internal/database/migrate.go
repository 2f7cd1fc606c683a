package database

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite3/*.sql
var migrationsFS embed.FS

// migrationTarget maps a configured driver + URL onto the embedded
// migration directory and the golang-migrate database URL.
func migrationTarget(driver, url string) (dir, dbURL string, err error) {
	switch driver {
	case DriverPostgres:
		return "migrations/postgres", url, nil
	case DriverSQLite:
		return "migrations/sqlite3", "sqlite3://" + strings.TrimPrefix(url, "file:"), nil
	}
	return "", "", fmt.Errorf("unsupported database driver %q", driver)
}

// NewMigrator builds a migrate instance over the embedded SQL files.
func NewMigrator(driver, url string) (*migrate.Migrate, error) {
	dir, dbURL, err := migrationTarget(driver, url)
	if err != nil {
		return nil, err
	}
	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, dbURL)
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, nil
}

// RunMigrations applies every pending migration. Already up to date is not an error.
func RunMigrations(driver, url string) error {
	m, err := NewMigrator(driver, url)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
