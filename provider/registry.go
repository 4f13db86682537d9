package provider

import (
	"sort"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"

	"github.com/ledgershift/ledgershift/errors"
)

// APIVersion is the provider capability API version exposed by this registry.
// Registrations may declare a semver constraint against it.
const APIVersion = "1.0.0"

// Registration records one provider registered with the registry.
type Registration struct {
	Provider     Provider
	Owner        string // Registering component (e.g. "ledgershift", "legacy-host")
	Priority     int    // Higher priority wins ActiveRegistration
	Compatible   string // Optional semver constraint on APIVersion ("" = no constraint)
	RegisteredAt time.Time
}

// Registry tracks provider registrations and resolves the active one.
// Safe for concurrent use.
type Registry struct {
	mu            sync.RWMutex
	registrations []*Registration
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a provider registration.
// Returns error if the declared API constraint is incompatible.
func (r *Registry) Register(p Provider, owner string, priority int, compatible string) error {
	if p == nil {
		return errors.New("cannot register nil provider")
	}

	if err := validateCompatibility(compatible); err != nil {
		return errors.Wrapf(err, "version incompatible for %s", p.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.registrations = append(r.registrations, &Registration{
		Provider:     p,
		Owner:        owner,
		Priority:     priority,
		Compatible:   compatible,
		RegisteredAt: time.Now(),
	})
	return nil
}

// UnregisterAll removes every registration made by owner and returns
// the number removed.
func (r *Registry) UnregisterAll(owner string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.registrations[:0]
	removed := 0
	for _, reg := range r.registrations {
		if reg.Owner == owner {
			removed++
			continue
		}
		kept = append(kept, reg)
	}
	r.registrations = kept
	return removed
}

// ActiveRegistration returns the highest-priority registration, or nil
// if none is registered. Ties go to the most recent registration.
func (r *Registry) ActiveRegistration() *Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active *Registration
	for _, reg := range r.registrations {
		if active == nil ||
			reg.Priority > active.Priority ||
			(reg.Priority == active.Priority && reg.RegisteredAt.After(active.RegisteredAt)) {
			active = reg
		}
	}
	return active
}

// List returns all registrations sorted by descending priority.
func (r *Registry) List() []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Registration, 0, len(r.registrations))
	for _, reg := range r.registrations {
		result = append(result, *reg)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Priority > result[j].Priority
	})
	return result
}

// validateCompatibility checks a semver constraint against APIVersion
func validateCompatibility(constraint string) error {
	if constraint == "" {
		// No version constraint specified
		return nil
	}

	apiVer, err := semver.NewVersion(APIVersion)
	if err != nil {
		return errors.Wrapf(err, "invalid API version %s", APIVersion)
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Wrapf(err, "invalid version constraint %s", constraint)
	}

	if !c.Check(apiVer) {
		return errors.Newf("provider requires API %s, but registry exposes %s", constraint, APIVersion)
	}

	return nil
}
