package migrate

import (
	"go.uber.org/zap"

	"github.com/ledgershift/ledgershift/logger"
	"github.com/ledgershift/ledgershift/provider"
)

// SwitchPriority is the registration priority used for failover; higher
// than any priority a host is expected to register providers at.
const SwitchPriority = 1000

// Switcher fails the active-provider registration over to the new
// implementation. Switch failures are non-fatal to a migration run:
// data correctness and provider failover are independent concerns.
type Switcher struct {
	registry *provider.Registry
	owner    string
	log      *zap.SugaredLogger
}

// NewSwitcher creates a switcher registering under owner
func NewSwitcher(registry *provider.Registry, owner string) *Switcher {
	return &Switcher{
		registry: registry,
		owner:    owner,
		log:      logger.ComponentLogger("switcher"),
	}
}

// SwitchTo unregisters any previous registration made by the owner,
// registers newImpl at highest priority, and re-reads the active
// registration to confirm the swap took effect and the new provider
// reports itself enabled. Returns false on any failure.
func (s *Switcher) SwitchTo(newImpl provider.Provider) bool {
	removed := s.registry.UnregisterAll(s.owner)
	if removed > 0 {
		s.log.Infow("Unregistered previous registrations",
			logger.FieldOwner, s.owner,
			logger.FieldCount, removed,
		)
	}

	if err := s.registry.Register(newImpl, s.owner, SwitchPriority, ""); err != nil {
		s.log.Warnw("Provider registration failed; data migrated, failover did not occur",
			logger.FieldProvider, newImpl.Name(),
			logger.FieldError, err,
		)
		return false
	}

	active := s.registry.ActiveRegistration()
	if active == nil || active.Provider.Name() != newImpl.Name() {
		s.log.Warnw("Provider switch not reflected by registry; data migrated, failover did not occur",
			logger.FieldProvider, newImpl.Name(),
		)
		return false
	}

	if !active.Provider.IsEnabled() {
		s.log.Warnw("New provider registered but reports disabled; data migrated, failover did not occur",
			logger.FieldProvider, newImpl.Name(),
		)
		return false
	}

	s.log.Infow("Provider switched",
		logger.FieldProvider, newImpl.Name(),
		"priority", SwitchPriority,
	)
	return true
}
