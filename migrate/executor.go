package migrate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ledgershift/ledgershift/internal/util"
	"github.com/ledgershift/ledgershift/ledger"
	"github.com/ledgershift/ledgershift/logger"
	"github.com/ledgershift/ledgershift/provider"
)

// ExecutorOptions tune the execute phase.
type ExecutorOptions struct {
	// BatchLogInterval controls progress logging (every N accounts)
	BatchLogInterval int
	// MaxErrors bounds the error strings retained for display
	MaxErrors int
	// MaxWritesPerSecond throttles ledger writes; 0 = unlimited
	MaxWritesPerSecond int
	// DryRun simulates the transformation without touching the store
	DryRun bool
}

// Executor transforms and loads per-account balances with conflict
// resolution. Accounts are processed sequentially: the backing store is
// not guaranteed safe under concurrent writes from this pipeline.
type Executor struct {
	store   *ledger.Store
	opts    ExecutorOptions
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

// NewExecutor creates an executor over the ledger store
func NewExecutor(store *ledger.Store, opts ExecutorOptions) *Executor {
	if opts.BatchLogInterval <= 0 {
		opts.BatchLogInterval = 100
	}
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = 10
	}

	var limiter *rate.Limiter
	if opts.MaxWritesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.MaxWritesPerSecond), 1)
	}

	return &Executor{
		store:   store,
		opts:    opts,
		limiter: limiter,
		log:     logger.ComponentLogger("executor"),
	}
}

// Run migrates every enumerated account that exists on the source.
// Per-account failures are isolated: one bad account never aborts the
// batch. Executor-level success requires zero failed accounts.
func (e *Executor) Run(ctx context.Context, accounts []provider.Account, source provider.Provider, target *ledger.Ledger, strategy *Strategy) *Stats {
	stats := newStats(len(accounts), e.opts.MaxErrors)

	for i, account := range accounts {
		e.migrateAccount(ctx, account, source, target, strategy, stats)

		if (i+1)%e.opts.BatchLogInterval == 0 {
			e.log.Infow("Migration progress",
				logger.FieldProcessed, stats.Processed,
				logger.FieldSucceeded, stats.Succeeded,
				logger.FieldFailed, stats.Failed,
				logger.FieldCount, len(accounts),
			)
		}
	}

	e.log.Infow("Execute phase complete",
		logger.FieldProcessed, stats.Processed,
		logger.FieldSucceeded, stats.Succeeded,
		logger.FieldFailed, stats.Failed,
		logger.FieldBalance, stats.TotalMigratedBalance,
	)

	return stats
}

// migrateAccount moves one account's balance. Panics and errors convert
// to a failure outcome so the batch always continues.
func (e *Executor) migrateAccount(ctx context.Context, account provider.Account, source provider.Provider, target *ledger.Ledger, strategy *Strategy, stats *Stats) {
	defer func() {
		if r := recover(); r != nil {
			stats.recordFailure(account, fmt.Sprintf("panic: %v", r))
			e.log.Errorw("Recovered panic while migrating account",
				logger.FieldAccount, account.ID,
				logger.FieldError, r,
			)
		}
	}()

	has, err := source.HasAccount(ctx, account)
	if err != nil {
		stats.recordFailure(account, err.Error())
		return
	}
	if !has {
		// Account unknown to the source: nothing to migrate
		return
	}

	balance, err := source.GetBalance(ctx, account)
	if err != nil {
		stats.recordFailure(account, err.Error())
		return
	}

	if balance < 0 {
		// Source data anomaly, not propagated
		e.log.Warnw("Negative source balance clamped to zero",
			logger.FieldAccount, account.ID,
			logger.FieldBalance, balance,
		)
		balance = util.ClampNonNegative(balance)
	}

	if strategy != nil && strategy.Hook != nil {
		balance, err = strategy.Hook(ctx, account, balance)
		if err != nil {
			stats.recordFailure(account, err.Error())
			return
		}
	}

	existing, err := e.store.FindBalance(ctx, account.ID, target.ID)
	if err != nil {
		stats.recordFailure(account, err.Error())
		return
	}

	// Conflict resolution: migrating must never destroy value already
	// accrued in the target. Keep the larger of the two balances.
	if existing != nil && existing.Amount >= balance {
		stats.recordSuccess(account, 0)
		return
	}

	if e.opts.DryRun {
		stats.recordSuccess(account, balance)
		return
	}

	if existing == nil {
		if _, err := e.store.CreateIdentity(ctx, account.ID, account.Name); err != nil {
			stats.recordFailure(account, err.Error())
			return
		}
		if _, err := e.store.CreateRelationship(ctx, account.ID, target.ID); err != nil {
			stats.recordFailure(account, err.Error())
			return
		}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			stats.recordFailure(account, err.Error())
			return
		}
	}

	if err := e.store.SetBalance(ctx, account.ID, target.ID, balance); err != nil {
		stats.recordFailure(account, err.Error())
		return
	}

	stats.recordSuccess(account, balance)
}
