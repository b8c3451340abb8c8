package postgres

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	ierr "github.com/flexprice/contractflow/internal/errors"
	"github.com/flexprice/contractflow/internal/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded migration names in apply order
func Migrations() ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// MigrationSQL returns the body of one embedded migration
func MigrationSQL(name string) (string, error) {
	body, err := migrationFiles.ReadFile("migrations/" + name)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Migrate applies every embedded migration that is not yet recorded in
// schema_migrations. Each migration runs in its own transaction.
func Migrate(ctx context.Context, db *DB, log *logger.Logger) error {
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to prepare schema_migrations").
			Mark(ierr.ErrDatabase)
	}

	names, err := Migrations()
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	for _, name := range names {
		err := db.WithTx(ctx, func(ctx context.Context) error {
			q := db.GetQuerier(ctx)

			var applied bool
			if err := q.GetContext(ctx, &applied,
				`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, name); err != nil {
				return err
			}
			if applied {
				return nil
			}

			body, err := MigrationSQL(name)
			if err != nil {
				return err
			}
			if _, err := q.ExecContext(ctx, body); err != nil {
				return err
			}
			if _, err := q.ExecContext(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name); err != nil {
				return err
			}

			log.Infow("applied migration", "name", name)
			return nil
		})
		if err != nil {
			return ierr.WithError(err).
				WithHintf("Failed to apply migration %s", name).
				Mark(ierr.ErrDatabase)
		}
	}
	return nil
}
