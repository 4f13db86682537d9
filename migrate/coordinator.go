package migrate

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ledgershift/ledgershift/config"
	"github.com/ledgershift/ledgershift/errors"
	"github.com/ledgershift/ledgershift/ledger"
	"github.com/ledgershift/ledgershift/logger"
	"github.com/ledgershift/ledgershift/provider"
)

// Options configure one migration run.
type Options struct {
	// CreateBackup snapshots all source balances before any mutation
	CreateBackup bool
	// SwitchProvider fails the registry over to the ledger store on success
	SwitchProvider bool
	// TargetLedgerID optionally names the destination ledger
	TargetLedgerID string
	// DryRun simulates the execute phase without writes
	DryRun bool
}

// Status is a point-in-time view of the coordinator.
type Status struct {
	Running    bool    `json:"running"`
	LastResult *Result `json:"last_result,omitempty"`
}

// Coordinator orchestrates the migration phases as a single-flight state
// machine: Idle -> Running -> Idle(LastResult). The running flag and last
// result are instance state guarded by a mutex, never process-wide globals.
type Coordinator struct {
	registry   *provider.Registry
	strategies *StrategyRegistry
	store      *ledger.Store
	enumerator provider.AccountEnumerator
	runs       *RunStore
	cfg        *config.Config
	log        *zap.SugaredLogger

	mu         sync.Mutex
	running    bool
	lastResult *Result
}

// NewCoordinator wires the pipeline's collaborators together.
// runs may be nil when run history persistence is not wanted.
func NewCoordinator(
	registry *provider.Registry,
	strategies *StrategyRegistry,
	store *ledger.Store,
	enumerator provider.AccountEnumerator,
	runs *RunStore,
	cfg *config.Config,
) *Coordinator {
	return &Coordinator{
		registry:   registry,
		strategies: strategies,
		store:      store,
		enumerator: enumerator,
		runs:       runs,
		cfg:        cfg,
		log:        logger.ComponentLogger("coordinator"),
	}
}

// Status reports whether a run is in flight and the last retained result.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{Running: c.running, LastResult: c.lastResult}
}

// Start launches a migration run in the background and returns a channel
// that resolves with the run's Result. Start never blocks: if a run is
// already in flight, the channel resolves immediately with a failed
// Result and no second run is launched.
func (c *Coordinator) Start(ctx context.Context, opts Options) <-chan *Result {
	resultCh := make(chan *Result, 1)

	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		resultCh <- &Result{
			RunID:        uuid.NewString(),
			Success:      false,
			ErrorMessage: errors.ErrMigrationRunning.Error(),
			StartedAt:    time.Now(),
			CompletedAt:  time.Now(),
		}
		return resultCh
	}
	c.running = true
	c.mu.Unlock()

	go func() {
		result := c.run(ctx, opts)

		// Publish the result and clear running in one critical section so
		// readers never observe Running=false with a stale LastResult.
		c.mu.Lock()
		c.lastResult = result
		c.running = false
		c.mu.Unlock()

		if c.runs != nil {
			if err := c.runs.SaveResult(ctx, result); err != nil {
				c.log.Warnw("Failed to persist run result", logger.FieldError, err)
			}
		}

		resultCh <- result
	}()

	return resultCh
}

// run executes the phases strictly in order:
// Detect -> [Backup] -> ResolveTarget -> Execute -> [Switch] -> Verify.
// Fatal errors from Detect, Backup and ResolveTarget short-circuit; no
// further phase runs. The returned Result is always non-nil.
func (c *Coordinator) run(ctx context.Context, opts Options) (result *Result) {
	runID := uuid.NewString()
	startedAt := time.Now()

	fail := func(providerName string, stats *Stats, err error) *Result {
		c.log.Errorw("Migration run failed",
			logger.FieldRunID, runID,
			logger.FieldError, err,
		)
		return &Result{
			RunID:        runID,
			Success:      false,
			Provider:     providerName,
			Stats:        stats,
			ErrorMessage: err.Error(),
			StartedAt:    startedAt,
			CompletedAt:  time.Now(),
		}
	}

	// The coordinator can never remain stuck Running: even a panic in a
	// phase converts to a failed Result here.
	defer func() {
		if r := recover(); r != nil {
			result = fail("", nil, errors.Newf("migration panic: %v", r))
		}
	}()

	c.log.Infow("Migration run starting",
		logger.FieldRunID, runID,
		"backup", opts.CreateBackup,
		"switch_provider", opts.SwitchProvider,
		"dry_run", opts.DryRun,
	)

	// Phase 1: detect the source provider
	handle, err := NewDetector(c.registry, c.strategies).Detect()
	if err != nil {
		return fail("", nil, err)
	}

	// Phase 2 (optional): backup snapshot, fail-fast before any mutation
	if opts.CreateBackup {
		snapshotter := NewSnapshotter(c.cfg.Backup.Dir)
		if _, _, err := snapshotter.Snapshot(ctx, handle.Provider, c.enumerator); err != nil {
			return fail(handle.Name, nil, err)
		}
	}

	// Phase 3: resolve the destination ledger
	target, err := NewTargetResolver(c.store).Resolve(ctx, opts.TargetLedgerID, handle.Provider)
	if err != nil {
		return fail(handle.Name, nil, err)
	}

	// Phase 4: execute per-account migration
	accounts, err := c.enumerator.Accounts(ctx)
	if err != nil {
		return fail(handle.Name, nil, errors.Wrap(err, "failed to enumerate accounts"))
	}

	executor := NewExecutor(c.store, ExecutorOptions{
		BatchLogInterval:   c.cfg.Migration.BatchLogInterval,
		MaxErrors:          c.cfg.Migration.MaxErrors,
		MaxWritesPerSecond: c.cfg.Migration.MaxWritesPerSecond,
		DryRun:             opts.DryRun,
	})
	stats := executor.Run(ctx, accounts, handle.Provider, target, handle.Strategy)

	// Phase 5 (optional): provider failover, non-fatal. Never switch on a
	// dry run: nothing was written.
	if opts.SwitchProvider && !opts.DryRun {
		switcher := NewSwitcher(c.registry, c.cfg.Provider.Owner)
		if !switcher.SwitchTo(ledger.NewStoreProvider(c.store, target)) {
			c.log.Warnw("Data migrated, failover did not occur", logger.FieldRunID, runID)
		}
	}

	// Phase 6: verification is the final authoritative gate. A dry run
	// wrote nothing, so there is nothing to verify against.
	verified := true
	if !opts.DryRun {
		verifier := NewVerifier(c.store, c.cfg.Migration.VerifySampleSize)
		verified = verifier.Verify(ctx, handle.Provider, target, stats)
	}

	result = &Result{
		RunID:       runID,
		Success:     stats.ExecuteSucceeded() && verified,
		Provider:    handle.Name,
		Stats:       stats,
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
	}
	if !stats.ExecuteSucceeded() {
		result.ErrorMessage = errors.Newf("%d of %d accounts failed", stats.Failed, stats.Processed).Error()
	} else if !verified {
		result.ErrorMessage = errors.ErrVerifyMismatch.Error()
	}

	c.log.Infow("Migration run complete",
		logger.FieldRunID, runID,
		logger.FieldSuccess, result.Success,
		logger.FieldProcessed, stats.Processed,
		logger.FieldSucceeded, stats.Succeeded,
		logger.FieldFailed, stats.Failed,
		logger.FieldBalance, stats.TotalMigratedBalance,
	)

	return result
}
