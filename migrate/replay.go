package migrate

import (
	"context"

	"github.com/google/uuid"

	"github.com/ledgershift/ledgershift/errors"
	"github.com/ledgershift/ledgershift/provider"
)

// SnapshotSource replays a backup artifact as a read-only balance
// provider, so a migration can be driven from a snapshot file instead
// of a live legacy provider. It doubles as its own account enumerator.
type SnapshotSource struct {
	name     string
	accounts []provider.Account
	balances map[uuid.UUID]float64
}

var (
	_ provider.Provider          = (*SnapshotSource)(nil)
	_ provider.AccountEnumerator = (*SnapshotSource)(nil)
)

// NewSnapshotSource builds a replay source from a loaded snapshot.
// Records with unparseable account identifiers are rejected rather than
// silently dropped: a backup artifact is supposed to be replayable in full.
func NewSnapshotSource(snapshot *Snapshot) (*SnapshotSource, error) {
	src := &SnapshotSource{
		name:     snapshot.Provider,
		accounts: make([]provider.Account, 0, len(snapshot.Records)),
		balances: make(map[uuid.UUID]float64, len(snapshot.Records)),
	}

	for _, record := range snapshot.Records {
		id, err := uuid.Parse(record.AccountID)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupt account id %q in snapshot", record.AccountID)
		}
		src.accounts = append(src.accounts, provider.Account{ID: id, Name: record.Name})
		src.balances[id] = record.Balance
	}

	return src, nil
}

// Name reports the provider name recorded in the snapshot header, so
// strategy matching behaves exactly as it would against the live provider.
func (s *SnapshotSource) Name() string { return s.name }

// IsEnabled implements provider.Provider
func (s *SnapshotSource) IsEnabled() bool { return true }

// CurrencyNameSingular implements provider.Provider
func (s *SnapshotSource) CurrencyNameSingular() string { return "unit" }

// CurrencyNamePlural implements provider.Provider
func (s *SnapshotSource) CurrencyNamePlural() string { return "units" }

// HasAccount implements provider.Provider
func (s *SnapshotSource) HasAccount(ctx context.Context, account provider.Account) (bool, error) {
	_, ok := s.balances[account.ID]
	return ok, nil
}

// GetBalance implements provider.Provider
func (s *SnapshotSource) GetBalance(ctx context.Context, account provider.Account) (float64, error) {
	balance, ok := s.balances[account.ID]
	if !ok {
		return 0, errors.Newf("account %s not in snapshot", account.ID)
	}
	return balance, nil
}

// Accounts implements provider.AccountEnumerator
func (s *SnapshotSource) Accounts(ctx context.Context) ([]provider.Account, error) {
	return s.accounts, nil
}
