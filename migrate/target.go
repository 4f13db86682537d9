package migrate

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ledgershift/ledgershift/errors"
	"github.com/ledgershift/ledgershift/ledger"
	"github.com/ledgershift/ledgershift/logger"
	"github.com/ledgershift/ledgershift/provider"
)

// TargetResolver finds or creates the destination ledger.
type TargetResolver struct {
	store *ledger.Store
	log   *zap.SugaredLogger
}

// NewTargetResolver creates a resolver over the ledger store
func NewTargetResolver(store *ledger.Store) *TargetResolver {
	return &TargetResolver{
		store: store,
		log:   logger.ComponentLogger("target"),
	}
}

// Resolve returns the destination ledger, in priority order:
// an existing ledger matching explicitID, any existing ledger (surfaced
// as a warning, since merging into an existing ledger changes its
// meaning), or a new ledger seeded from the source provider's singular
// currency name. New ledgers are persisted before returning.
func (r *TargetResolver) Resolve(ctx context.Context, explicitID string, src provider.Provider) (*ledger.Ledger, error) {
	if explicitID != "" {
		existing, err := r.store.FindLedger(ctx, explicitID)
		if err == nil {
			r.log.Infow("Reusing explicitly requested ledger", logger.FieldLedger, existing.ID)
			return existing, nil
		}
		if !errors.IsNotFoundError(err) {
			return nil, errors.Wrap(err, "failed to look up requested ledger")
		}
		return r.create(ctx, explicitID, src)
	}

	existing, err := r.store.FindAnyLedger(ctx)
	if err == nil {
		r.log.Warnw("Reusing existing ledger; migrated balances will merge into it",
			logger.FieldLedger, existing.ID)
		return existing, nil
	}
	if !errors.IsNotFoundError(err) {
		return nil, errors.Wrap(err, "failed to look up existing ledgers")
	}

	id := strings.ToLower(strings.TrimSpace(src.CurrencyNameSingular()))
	if id == "" {
		id = "migrated"
	}
	return r.create(ctx, id, src)
}

// create persists a new ledger seeded from the provider's currency name
func (r *TargetResolver) create(ctx context.Context, id string, src provider.Provider) (*ledger.Ledger, error) {
	spec := ledger.Spec{
		ID:     id,
		Suffix: " " + strings.TrimSpace(src.CurrencyNameSingular()),
	}

	created, err := r.store.CreateLedger(ctx, spec)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrLedgerCreate, "create ledger %s: %v", id, err)
	}

	r.log.Infow("Created target ledger",
		logger.FieldLedger, created.ID,
		logger.FieldProvider, src.Name(),
	)
	return created, nil
}
