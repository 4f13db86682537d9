package migrate

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/ledgershift/ledgershift/errors"
	lstesting "github.com/ledgershift/ledgershift/internal/testing"
	"github.com/ledgershift/ledgershift/ledger"
	"github.com/ledgershift/ledgershift/provider"
)

// fakeSource is an in-memory legacy balance provider.
type fakeSource struct {
	name     string
	enabled  bool
	currency string
	balances map[uuid.UUID]float64

	// Accounts whose reads fail, to exercise partial-failure isolation
	failGet map[uuid.UUID]bool
	// Accounts whose reads panic
	panicGet map[uuid.UUID]bool
}

func newFakeSource(name string) *fakeSource {
	return &fakeSource{
		name:     name,
		enabled:  true,
		currency: "coin",
		balances: make(map[uuid.UUID]float64),
		failGet:  make(map[uuid.UUID]bool),
		panicGet: make(map[uuid.UUID]bool),
	}
}

func (f *fakeSource) Name() string                 { return f.name }
func (f *fakeSource) IsEnabled() bool              { return f.enabled }
func (f *fakeSource) CurrencyNameSingular() string { return f.currency }
func (f *fakeSource) CurrencyNamePlural() string   { return f.currency + "s" }

func (f *fakeSource) HasAccount(ctx context.Context, account provider.Account) (bool, error) {
	_, ok := f.balances[account.ID]
	return ok, nil
}

func (f *fakeSource) GetBalance(ctx context.Context, account provider.Account) (float64, error) {
	if f.panicGet[account.ID] {
		panic("source provider crashed")
	}
	if f.failGet[account.ID] {
		return 0, errors.New("source read failed")
	}
	return f.balances[account.ID], nil
}

func (f *fakeSource) addAccount(name string, balance float64) provider.Account {
	account := provider.Account{ID: uuid.New(), Name: name}
	f.balances[account.ID] = balance
	return account
}

// sliceEnumerator yields a fixed account list.
type sliceEnumerator struct {
	accounts []provider.Account
	err      error
}

func (e *sliceEnumerator) Accounts(ctx context.Context) ([]provider.Account, error) {
	return e.accounts, e.err
}

// newTestLedgerStore opens a migrated temp database and wraps it in a store
func newTestLedgerStore(t *testing.T) *ledger.Store {
	t.Helper()
	return ledger.NewStore(lstesting.CreateTestDB(t))
}
