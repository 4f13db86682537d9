package db

import (
	"database/sql"
	"embed"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ledgershift/ledgershift/errors"
)

//go:embed sqlite/migrations/*.sql
var migrationFS embed.FS

const migrationDir = "sqlite/migrations"

// Migrate brings the schema up to date, applying any migration file not
// yet recorded in schema_migrations. A nil logger runs silently.
func Migrate(database *sql.DB, logger *zap.SugaredLogger) error {
	files, err := migrationFiles()
	if err != nil {
		return err
	}

	applied, err := appliedVersions(database)
	if err != nil {
		return err
	}

	for _, filename := range files {
		version, _, _ := strings.Cut(filename, "_")
		if applied[version] {
			if logger != nil {
				logger.Debugw("Schema migration already applied", "migration", filename)
			}
			continue
		}

		if err := applyMigration(database, filename, version); err != nil {
			return err
		}
		if logger != nil {
			logger.Infow("Schema migration applied",
				"migration", filename,
				"version", version,
			)
		}
	}

	if logger != nil {
		logger.Debugw("Schema up to date", "migrations", len(files))
	}
	return nil
}

// migrationFiles lists the embedded migration files in apply order. The
// numeric filename prefix orders them; 000 bootstraps schema_migrations.
func migrationFiles() ([]string, error) {
	entries, err := migrationFS.ReadDir(migrationDir)
	if err != nil {
		return nil, errors.Wrap(err, "read embedded migrations")
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// appliedVersions reads the set of recorded migration versions. On a fresh
// database schema_migrations does not exist yet, which reads as nothing
// applied; migration 000 then creates the table.
func appliedVersions(database *sql.DB) (map[string]bool, error) {
	applied := make(map[string]bool)

	rows, err := database.Query("SELECT version FROM schema_migrations")
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return applied, nil
		}
		return nil, errors.Wrap(err, "read schema_migrations")
	}
	defer rows.Close()

	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, errors.Wrap(err, "scan schema_migrations")
		}
		applied[version] = true
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate schema_migrations")
	}
	return applied, nil
}

// applyMigration executes one migration file and records its version in
// the same transaction.
func applyMigration(database *sql.DB, filename, version string) error {
	stmt, err := migrationFS.ReadFile(filepath.Join(migrationDir, filename))
	if err != nil {
		return errors.Wrapf(err, "read %s", filename)
	}

	tx, err := database.Begin()
	if err != nil {
		return errors.Wrapf(err, "begin tx for %s", filename)
	}

	if _, err := tx.Exec(string(stmt)); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "execute %s", filename)
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		tx.Rollback()
		return errors.Wrapf(err, "record %s", filename)
	}
	return errors.Wrapf(tx.Commit(), "commit %s", filename)
}
