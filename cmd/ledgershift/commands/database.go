package commands

import (
	"database/sql"

	"github.com/ledgershift/ledgershift/config"
	"github.com/ledgershift/ledgershift/db"
	"github.com/ledgershift/ledgershift/errors"
	"github.com/ledgershift/ledgershift/logger"
)

// openDatabase opens and migrates the ledger database using the specified
// path. If dbPath is empty, it comes from configuration.
func openDatabase(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, errors.Wrap(err, "failed to load configuration")
		}
		dbPath = cfg.Database.Path
	}

	database, err := db.OpenWithMigrations(dbPath, logger.Logger)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database at %s", dbPath)
	}

	return database, nil
}
