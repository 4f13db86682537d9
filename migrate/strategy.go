package migrate

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/ledgershift/ledgershift/errors"
	"github.com/ledgershift/ledgershift/provider"
)

// ValidateFunc checks that a detected provider is in a migratable state.
type ValidateFunc func(p provider.Provider) error

// HookFunc optionally transforms one account's clamped source balance
// before it is loaded into the target ledger.
type HookFunc func(ctx context.Context, account provider.Account, balance float64) (float64, error)

// Strategy describes how to migrate from one known source provider.
// Most providers need only the generic balance copy; Validate and Hook
// cover the few that do not.
type Strategy struct {
	Name     string
	Validate ValidateFunc
	Hook     HookFunc
}

// StrategyRegistry is a name-keyed table of migration strategies.
// Safe for concurrent use.
type StrategyRegistry struct {
	mu         sync.RWMutex
	strategies map[string]*Strategy
}

// NewStrategyRegistry creates an empty strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		strategies: make(map[string]*Strategy),
	}
}

// Register adds a strategy keyed by its name. A later registration with
// the same name replaces the earlier one.
func (r *StrategyRegistry) Register(s *Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.strategies[strings.ToLower(s.Name)] = s
}

// Match finds the strategy for a provider name: exact match first, then
// case-insensitive substring match in either direction.
// Returns nil when no strategy matches.
func (r *StrategyRegistry) Match(providerName string) *Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(providerName)
	if s, ok := r.strategies[needle]; ok {
		return s
	}

	// Fuzzy fallback: iterate in sorted order for determinism
	names := make([]string, 0, len(r.strategies))
	for name := range r.strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if strings.Contains(needle, name) || strings.Contains(name, needle) {
			return r.strategies[name]
		}
	}
	return nil
}

// Names returns all registered strategy names in sorted order
func (r *StrategyRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.strategies))
	for _, s := range r.strategies {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// validateEnabled is the generic validation shared by the known source
// providers: the provider must report itself enabled.
func validateEnabled(p provider.Provider) error {
	if !p.IsEnabled() {
		return errors.Wrapf(errors.ErrUnsupportedProvider, "provider %s is disabled", p.Name())
	}
	return nil
}

// DefaultStrategyRegistry returns the registry of known legacy source
// providers. All use the generic balance copy; entries exist so detection
// can refuse providers nobody has vetted the semantics of.
func DefaultStrategyRegistry() *StrategyRegistry {
	r := NewStrategyRegistry()
	for _, name := range []string{
		"CoinVault",
		"EconomyCore",
		"BalanceBook",
		"TokenBank",
		"PocketLedger",
	} {
		r.Register(&Strategy{Name: name, Validate: validateEnabled})
	}
	return r
}
