package migrate

import (
	"go.uber.org/zap"

	"github.com/ledgershift/ledgershift/errors"
	"github.com/ledgershift/ledgershift/ledger"
	"github.com/ledgershift/ledgershift/logger"
	"github.com/ledgershift/ledgershift/provider"
)

// Handle is the detected source provider paired with its migration
// strategy. Immutable once detected.
type Handle struct {
	Name     string
	Provider provider.Provider
	Strategy *Strategy
}

// Detector locates the active provider and matches it to a known
// migration strategy. Read-only: detection has no side effects.
type Detector struct {
	registry   *provider.Registry
	strategies *StrategyRegistry
	log        *zap.SugaredLogger
}

// NewDetector creates a detector over the provider and strategy registries
func NewDetector(registry *provider.Registry, strategies *StrategyRegistry) *Detector {
	return &Detector{
		registry:   registry,
		strategies: strategies,
		log:        logger.ComponentLogger("detector"),
	}
}

// Detect resolves the currently active provider.
// Fails with ErrNoProvider if none is registered, ErrAlreadyTarget if the
// active provider is the ledger store itself, and ErrUnsupportedProvider
// if no strategy matches its name or validation rejects it.
func (d *Detector) Detect() (*Handle, error) {
	active := d.registry.ActiveRegistration()
	if active == nil {
		return nil, errors.WithHint(errors.ErrNoProvider,
			"register the legacy provider with the host before migrating")
	}

	name := active.Provider.Name()
	if name == ledger.ProviderName {
		return nil, errors.Wrapf(errors.ErrAlreadyTarget, "active provider %q", name)
	}

	strategy := d.strategies.Match(name)
	if strategy == nil {
		return nil, errors.Wrapf(errors.ErrUnsupportedProvider, "no strategy matches %q", name)
	}

	if strategy.Validate != nil {
		if err := strategy.Validate(active.Provider); err != nil {
			return nil, err
		}
	}

	d.log.Infow("Detected source provider",
		logger.FieldProvider, name,
		"strategy", strategy.Name,
	)

	return &Handle{
		Name:     name,
		Provider: active.Provider,
		Strategy: strategy,
	}, nil
}
