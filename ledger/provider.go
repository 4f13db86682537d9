package ledger

import (
	"context"
	"strings"

	"github.com/ledgershift/ledgershift/provider"
)

// ProviderName is the name the ledger store reports on the provider registry.
const ProviderName = "ledgershift"

// StoreProvider exposes one ledger of the store through the balance-provider
// capability surface. It is the implementation the migration pipeline fails
// the active registration over to.
type StoreProvider struct {
	store  *Store
	ledger *Ledger
}

var _ provider.Provider = (*StoreProvider)(nil)

// NewStoreProvider creates a provider view over one ledger of the store
func NewStoreProvider(store *Store, l *Ledger) *StoreProvider {
	return &StoreProvider{store: store, ledger: l}
}

// Name implements provider.Provider
func (p *StoreProvider) Name() string { return ProviderName }

// IsEnabled implements provider.Provider
func (p *StoreProvider) IsEnabled() bool {
	return p.store != nil && p.ledger != nil
}

// CurrencyNameSingular implements provider.Provider.
// The singular unit name is seeded into the ledger suffix at creation.
func (p *StoreProvider) CurrencyNameSingular() string {
	if name := strings.TrimSpace(p.ledger.Suffix); name != "" {
		return name
	}
	return p.ledger.ID
}

// CurrencyNamePlural implements provider.Provider
func (p *StoreProvider) CurrencyNamePlural() string {
	return p.CurrencyNameSingular() + "s"
}

// HasAccount implements provider.Provider
func (p *StoreProvider) HasAccount(ctx context.Context, account provider.Account) (bool, error) {
	balance, err := p.store.FindBalance(ctx, account.ID, p.ledger.ID)
	if err != nil {
		return false, err
	}
	return balance != nil, nil
}

// GetBalance implements provider.Provider.
// Accounts without a relationship report a zero balance.
func (p *StoreProvider) GetBalance(ctx context.Context, account provider.Account) (float64, error) {
	balance, err := p.store.FindBalance(ctx, account.ID, p.ledger.ID)
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return balance.Amount, nil
}
