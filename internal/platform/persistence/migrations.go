package persistence

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file:// source
)

// RunMigrations brings the book-of-record schema up to date before the pool
// is handed to the repositories. A schema that is already current is not an
// error.
func RunMigrations(databaseURL, migrationsPath string) error {
	if databaseURL == "" || migrationsPath == "" {
		return errors.New("database URL and migrations path are required")
	}

	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if sourceErr, dbErr := m.Close(); sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	} else if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}

	return nil
}
