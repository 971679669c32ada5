package db

import (
	"database/sql"
	"embed"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/teranos/qntx-cohort/errors"
)

//go:embed sqlite/migrations/*.sql
var migrations embed.FS

const migrationsDir = "sqlite/migrations"

// migration is one embedded schema file; version is the numeric filename prefix
type migration struct {
	version string
	file    string
}

// Migrations lists the embedded migrations in the order they are applied
func Migrations() ([]string, error) {
	ms, err := loadMigrations()
	if err != nil {
		return nil, err
	}
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.file
	}
	return out, nil
}

func loadMigrations() ([]migration, error) {
	entries, err := migrations.ReadDir(migrationsDir)
	if err != nil {
		return nil, errors.Wrap(err, "read migrations")
	}

	var ms []migration
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		ms = append(ms, migration{
			version: strings.SplitN(e.Name(), "_", 2)[0],
			file:    e.Name(),
		})
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].file < ms[j].file })
	return ms, nil
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, each in its own transaction. Migration 000 creates
// schema_migrations itself. If logger is nil, operates silently.
func Migrate(db *sql.DB, logger *zap.SugaredLogger) error {
	ms, err := loadMigrations()
	if err != nil {
		return err
	}

	applied := 0
	for _, m := range ms {
		done, err := isApplied(db, m)
		if err != nil {
			return err
		}
		if done {
			if logger != nil {
				logger.Debugw("Skipping applied migration", "migration", m.file)
			}
			continue
		}

		if logger != nil {
			logger.Infow("Applying migration", "migration", m.file, "version", m.version)
		}
		if err := apply(db, m); err != nil {
			return err
		}
		applied++
	}

	if logger != nil {
		logger.Infow("Migrations complete",
			"applied", applied,
			"total_migrations", len(ms),
		)
	}
	return nil
}

func isApplied(db *sql.DB, m migration) (bool, error) {
	var exists bool
	err := db.QueryRow("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", m.version).Scan(&exists)
	if err == nil {
		return exists, nil
	}
	// before 000 has run the table does not exist
	if m.version == "000" {
		return false, nil
	}
	return false, errors.Wrapf(err, "check %s", m.file)
}

func apply(db *sql.DB, m migration) error {
	body, err := migrations.ReadFile(path.Join(migrationsDir, m.file))
	if err != nil {
		return errors.Wrapf(err, "read %s", m.file)
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", m.file)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(string(body)); err != nil {
		return errors.Wrapf(err, "execute %s", m.file)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return errors.Wrapf(err, "record %s", m.file)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "commit %s", m.file)
	}
	return nil
}
