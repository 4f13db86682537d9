// Package provider defines the balance-provider capability surface and the
// registry that tracks which implementation is active.
//
// Providers are host-supplied capability objects, not a class hierarchy:
// the registry only knows the Provider interface, and migration strategies
// are matched to providers by name.
package provider

import (
	"context"

	"github.com/google/uuid"
)

// Account is an end-user identity tracked by a balance-holding system.
type Account struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// Provider is the capability surface of a balance-tracking system.
// Implementations may be backed by external processes or local storage.
type Provider interface {
	// Name returns the provider's self-reported name (e.g. "CoinVault")
	Name() string

	// IsEnabled reports whether the provider is operational
	IsEnabled() bool

	// CurrencyNameSingular returns the singular unit name (e.g. "coin")
	CurrencyNameSingular() string

	// CurrencyNamePlural returns the plural unit name (e.g. "coins")
	CurrencyNamePlural() string

	// HasAccount reports whether the provider tracks a balance for account
	HasAccount(ctx context.Context, account Account) (bool, error)

	// GetBalance returns the current balance for account
	GetBalance(ctx context.Context, account Account) (float64, error)
}

// AccountEnumerator yields the full set of known account references.
// Enumeration is external I/O and not part of the migration core.
type AccountEnumerator interface {
	Accounts(ctx context.Context) ([]Account, error)
}
