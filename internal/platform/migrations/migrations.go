package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed sql/postgres/*.sql sql/sqlite3/*.sql
var files embed.FS

// Apply brings the schema up to date. The driver name selects the dialect
// directory, so postgres and sqlite3 deployments share one migration history.
func Apply(db *sql.DB, driver string) error {
	source, err := iofs.New(files, "sql/"+driver)
	if err != nil {
		return fmt.Errorf("load migrations for %s: %w", driver, err)
	}

	var target database.Driver
	switch driver {
	case "postgres":
		target, err = migratepg.WithInstance(db, &migratepg.Config{})
	case "sqlite3":
		target, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}
	if err != nil {
		return fmt.Errorf("migration driver %s: %w", driver, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driver, target)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
