package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// Migrate applies pending schema migrations from the given directory. The
// pool DSN is accepted as-is; the scheme is rewritten to the pgx5 driver.
func Migrate(migrationsPath, dsn string) error {
	if rest, ok := strings.CutPrefix(dsn, "postgres://"); ok {
		dsn = "pgx5://" + rest
	} else if rest, ok := strings.CutPrefix(dsn, "postgresql://"); ok {
		dsn = "pgx5://" + rest
	}
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("platform/db: open migrations: %w", err)
	}
	defer func() {
		_, _ = m.Close()
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("platform/db: apply migrations: %w", err)
	}
	return nil
}
