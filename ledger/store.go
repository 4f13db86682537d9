package ledger

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/ledgershift/ledgershift/errors"
)

// Store handles persistence of ledgers, identities and balances.
type Store struct {
	db *sql.DB
}

// NewStore creates a ledger store over an open database
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// DefaultSymbol is used when a ledger spec does not supply one
const DefaultSymbol = "$"

// FindLedger retrieves a ledger by identifier.
// Returns a wrapped errors.ErrNotFound when no such ledger exists.
func (s *Store) FindLedger(ctx context.Context, id string) (*Ledger, error) {
	query := `SELECT id, symbol, prefix, suffix, icon, created_at FROM ledgers WHERE id = ?`

	var l Ledger
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.Symbol, &l.Prefix, &l.Suffix, &l.Icon, &l.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("ledger %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find ledger")
	}

	return &l, nil
}

// FindAnyLedger returns the oldest existing ledger, or a wrapped
// errors.ErrNotFound when the store holds none.
func (s *Store) FindAnyLedger(ctx context.Context) (*Ledger, error) {
	query := `SELECT id, symbol, prefix, suffix, icon, created_at FROM ledgers ORDER BY created_at, id LIMIT 1`

	var l Ledger
	err := s.db.QueryRowContext(ctx, query).Scan(
		&l.ID, &l.Symbol, &l.Prefix, &l.Suffix, &l.Icon, &l.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewNotFoundError("no ledgers exist")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find any ledger")
	}

	return &l, nil
}

// CreateLedger persists a new ledger from spec and returns it.
func (s *Store) CreateLedger(ctx context.Context, spec Spec) (*Ledger, error) {
	if spec.ID == "" {
		return nil, errors.New("ledger spec missing identifier")
	}
	if spec.Symbol == "" {
		spec.Symbol = DefaultSymbol
	}

	query := `INSERT INTO ledgers (id, symbol, prefix, suffix, icon) VALUES (?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, spec.ID, spec.Symbol, spec.Prefix, spec.Suffix, spec.Icon); err != nil {
		return nil, errors.Wrapf(err, "failed to create ledger %s", spec.ID)
	}

	return s.FindLedger(ctx, spec.ID)
}

// FindBalance retrieves the balance for (account, ledger).
// Returns (nil, nil) when the account holds no balance in that ledger,
// so callers can distinguish "absent" from query failure.
func (s *Store) FindBalance(ctx context.Context, accountID uuid.UUID, ledgerID string) (*Balance, error) {
	query := `SELECT account_id, ledger_id, amount, created_at, updated_at FROM balances WHERE account_id = ? AND ledger_id = ?`

	var b Balance
	var rawID string
	err := s.db.QueryRowContext(ctx, query, accountID.String(), ledgerID).Scan(
		&rawID, &b.LedgerID, &b.Amount, &b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find balance")
	}

	b.AccountID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, errors.Wrapf(err, "corrupt account id %q in balances", rawID)
	}

	return &b, nil
}

// CreateIdentity records the target-side identity for an account.
// Idempotent: re-creating an existing identity is a no-op.
func (s *Store) CreateIdentity(ctx context.Context, accountID uuid.UUID, name string) (*Identity, error) {
	query := `INSERT INTO identities (account_id, name) VALUES (?, ?)
		ON CONFLICT(account_id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, accountID.String(), name); err != nil {
		return nil, errors.Wrapf(err, "failed to create identity for %s", accountID)
	}

	var ident Identity
	var rawID string
	err := s.db.QueryRowContext(ctx,
		`SELECT account_id, name, created_at FROM identities WHERE account_id = ?`,
		accountID.String(),
	).Scan(&rawID, &ident.Name, &ident.CreatedAt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read back identity")
	}
	ident.AccountID = accountID

	return &ident, nil
}

// CreateRelationship creates the zero balance linking an identity to a
// ledger. Idempotent for an existing relationship.
func (s *Store) CreateRelationship(ctx context.Context, accountID uuid.UUID, ledgerID string) (*Balance, error) {
	query := `INSERT INTO balances (account_id, ledger_id, amount) VALUES (?, ?, 0)
		ON CONFLICT(account_id, ledger_id) DO NOTHING`
	if _, err := s.db.ExecContext(ctx, query, accountID.String(), ledgerID); err != nil {
		return nil, errors.Wrapf(err, "failed to create relationship %s -> %s", accountID, ledgerID)
	}

	balance, err := s.FindBalance(ctx, accountID, ledgerID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return nil, errors.Newf("relationship %s -> %s missing after create", accountID, ledgerID)
	}

	return balance, nil
}

// SetBalance updates the amount for an existing (account, ledger) balance.
func (s *Store) SetBalance(ctx context.Context, accountID uuid.UUID, ledgerID string, amount float64) error {
	query := `UPDATE balances SET amount = ?, updated_at = CURRENT_TIMESTAMP WHERE account_id = ? AND ledger_id = ?`

	result, err := s.db.ExecContext(ctx, query, amount, accountID.String(), ledgerID)
	if err != nil {
		return errors.Wrap(err, "failed to set balance")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check balance update")
	}
	if affected == 0 {
		return errors.NewNotFoundError("balance %s in ledger %s", accountID, ledgerID)
	}

	return nil
}

// Stats returns store-wide counts for the operator surface.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM ledgers),
			(SELECT COUNT(*) FROM identities),
			(SELECT COUNT(*) FROM balances),
			(SELECT COUNT(*) FROM migration_runs),
			(SELECT COALESCE(SUM(amount), 0) FROM balances)
	`).Scan(&stats.Ledgers, &stats.Identities, &stats.Balances, &stats.Runs, &stats.TotalHeld)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query store stats")
	}

	return &stats, nil
}
