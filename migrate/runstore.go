package migrate

import (
	"context"
	"database/sql"
	"time"

	"github.com/ledgershift/ledgershift/errors"
)

// RunStore persists per-run results into the migration_runs table.
// Rows are written once when a run completes and never updated.
type RunStore struct {
	db *sql.DB
}

// NewRunStore creates a run store over an open database
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// RunRecord is one persisted migration run summary.
type RunRecord struct {
	ID              string    `json:"id"`
	Provider        string    `json:"provider"`
	Success         bool      `json:"success"`
	TotalAccounts   int       `json:"total_accounts"`
	Processed       int       `json:"processed"`
	Succeeded       int       `json:"succeeded"`
	Failed          int       `json:"failed"`
	MigratedBalance float64   `json:"migrated_balance"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
}

// SaveResult records a completed run.
func (s *RunStore) SaveResult(ctx context.Context, result *Result) error {
	query := `
		INSERT INTO migration_runs (
			id, provider, success,
			total_accounts, processed, succeeded, failed,
			migrated_balance, error, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var totalAccounts, processed, succeeded, failed int
	var migratedBalance float64
	if result.Stats != nil {
		totalAccounts = result.Stats.TotalAccounts
		processed = result.Stats.Processed
		succeeded = result.Stats.Succeeded
		failed = result.Stats.Failed
		migratedBalance = result.Stats.TotalMigratedBalance
	}

	_, err := s.db.ExecContext(ctx, query,
		result.RunID,
		result.Provider,
		result.Success,
		totalAccounts,
		processed,
		succeeded,
		failed,
		migratedBalance,
		result.ErrorMessage,
		result.StartedAt,
		result.CompletedAt,
	)
	if err != nil {
		return errors.Wrap(err, "failed to save migration run")
	}

	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, provider, success,
			total_accounts, processed, succeeded, failed,
			migrated_balance, error, started_at, completed_at
		FROM migration_runs
		ORDER BY completed_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list migration runs")
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		if err := rows.Scan(
			&r.ID, &r.Provider, &r.Success,
			&r.TotalAccounts, &r.Processed, &r.Succeeded, &r.Failed,
			&r.MigratedBalance, &r.Error, &r.StartedAt, &r.CompletedAt,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan migration run")
		}
		records = append(records, r)
	}

	return records, rows.Err()
}
