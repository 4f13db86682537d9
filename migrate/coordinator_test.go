package migrate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgershift/ledgershift/config"
	"github.com/ledgershift/ledgershift/errors"
	lstesting "github.com/ledgershift/ledgershift/internal/testing"
	"github.com/ledgershift/ledgershift/ledger"
	"github.com/ledgershift/ledgershift/provider"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Backup: config.BackupConfig{Dir: filepath.Join(t.TempDir(), "backups")},
		Migration: config.MigrationConfig{
			BatchLogInterval: 100,
			MaxErrors:        10,
			VerifySampleSize: 10,
		},
		Provider: config.ProviderConfig{Owner: "ledgershift"},
	}
}

// blockingSource parks every balance read until released, letting tests
// hold a run in flight.
type blockingSource struct {
	*fakeSource
	release chan struct{}
}

func (b *blockingSource) GetBalance(ctx context.Context, account provider.Account) (float64, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return 0, ctx.Err()
	}
	return b.fakeSource.GetBalance(ctx, account)
}

// driftingSource reports a higher balance on every read after the first,
// so post-migration verification sees a source/target mismatch.
type driftingSource struct {
	*fakeSource
	reads map[uuid.UUID]int
}

func newDriftingSource(name string) *driftingSource {
	return &driftingSource{
		fakeSource: newFakeSource(name),
		reads:      make(map[uuid.UUID]int),
	}
}

func (d *driftingSource) GetBalance(ctx context.Context, account provider.Account) (float64, error) {
	balance, err := d.fakeSource.GetBalance(ctx, account)
	if err != nil {
		return 0, err
	}
	d.reads[account.ID]++
	if d.reads[account.ID] > 1 {
		balance += 100
	}
	return balance, nil
}

func awaitResult(t *testing.T, ch <-chan *Result) *Result {
	t.Helper()
	select {
	case result := <-ch:
		require.NotNil(t, result)
		return result
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for migration result")
		return nil
	}
}

func TestCoordinatorFullRun(t *testing.T) {
	ctx := context.Background()
	db := lstesting.CreateTestDB(t)
	store := ledger.NewStore(db)
	runs := NewRunStore(db)
	cfg := testConfig(t)

	source := newFakeSource("CoinVault")
	alice := source.addAccount("alice", 100)
	debtor := source.addAccount("debtor", -5)
	ghost := provider.Account{ID: uuid.New(), Name: "ghost"}

	registry := provider.NewRegistry()
	require.NoError(t, registry.Register(source, "host", 1, ""))

	enumerator := &sliceEnumerator{accounts: []provider.Account{alice, debtor, ghost}}
	coord := NewCoordinator(registry, DefaultStrategyRegistry(), store, enumerator, runs, cfg)

	result := awaitResult(t, coord.Start(ctx, Options{CreateBackup: true, SwitchProvider: true}))

	assert.True(t, result.Success)
	assert.Equal(t, "CoinVault", result.Provider)
	assert.NotEmpty(t, result.RunID)
	assert.Empty(t, result.ErrorMessage)
	require.NotNil(t, result.Stats)
	assert.Equal(t, 3, result.Stats.TotalAccounts)
	assert.Equal(t, 2, result.Stats.Processed)
	assert.Equal(t, 2, result.Stats.Succeeded)
	assert.Equal(t, 0, result.Stats.Failed)
	assert.InDelta(t, 100, result.Stats.TotalMigratedBalance, 1e-9)

	// Backup snapshot landed on disk
	backups, err := ListBackups(cfg.Backup.Dir)
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	// Balances loaded into the target ledger, negative clamped to zero
	target, err := store.FindAnyLedger(ctx)
	require.NoError(t, err)
	aliceBalance, err := store.FindBalance(ctx, alice.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, aliceBalance)
	assert.InDelta(t, 100, aliceBalance.Amount, 1e-9)
	debtorBalance, err := store.FindBalance(ctx, debtor.ID, target.ID)
	require.NoError(t, err)
	require.NotNil(t, debtorBalance)
	assert.Zero(t, debtorBalance.Amount)

	// Failover: active registration is now the ledger store
	active := registry.ActiveRegistration()
	require.NotNil(t, active)
	assert.Equal(t, ledger.ProviderName, active.Provider.Name())

	// Result persisted to run history
	records, err := runs.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, result.RunID, records[0].ID)
	assert.True(t, records[0].Success)

	status := coord.Status()
	assert.False(t, status.Running)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, result.RunID, status.LastResult.RunID)

	// A second run now detects the ledger store as the active provider
	rerun := awaitResult(t, coord.Start(ctx, Options{}))
	assert.False(t, rerun.Success)
	assert.Contains(t, rerun.ErrorMessage, errors.ErrAlreadyTarget.Error())
}

func TestCoordinatorSingleFlight(t *testing.T) {
	ctx := context.Background()
	db := lstesting.CreateTestDB(t)
	store := ledger.NewStore(db)
	cfg := testConfig(t)

	source := &blockingSource{
		fakeSource: newFakeSource("CoinVault"),
		release:    make(chan struct{}),
	}
	account := source.addAccount("alice", 100)

	registry := provider.NewRegistry()
	require.NoError(t, registry.Register(source, "host", 1, ""))

	enumerator := &sliceEnumerator{accounts: []provider.Account{account}}
	coord := NewCoordinator(registry, DefaultStrategyRegistry(), store, enumerator, nil, cfg)

	firstCh := coord.Start(ctx, Options{})
	require.Eventually(t, func() bool {
		return coord.Status().Running
	}, 5*time.Second, 5*time.Millisecond)

	// While the first run is parked, a second start is refused
	second := awaitResult(t, coord.Start(ctx, Options{}))
	assert.False(t, second.Success)
	assert.Equal(t, errors.ErrMigrationRunning.Error(), second.ErrorMessage)

	close(source.release)
	first := awaitResult(t, firstCh)
	assert.True(t, first.Success)
	assert.Equal(t, 1, first.Stats.Succeeded)

	status := coord.Status()
	assert.False(t, status.Running)
	require.NotNil(t, status.LastResult)
	assert.Equal(t, first.RunID, status.LastResult.RunID)
}

func TestCoordinatorDetectFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)
	coord := NewCoordinator(provider.NewRegistry(), DefaultStrategyRegistry(), store, &sliceEnumerator{}, nil, testConfig(t))

	result := awaitResult(t, coord.Start(ctx, Options{}))

	assert.False(t, result.Success)
	assert.Nil(t, result.Stats)
	assert.Contains(t, result.ErrorMessage, errors.ErrNoProvider.Error())
}

func TestCoordinatorBackupFailureAbortsBeforeMutation(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)
	cfg := testConfig(t)

	// Point the backup directory under a regular file so it cannot be created
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	cfg.Backup.Dir = filepath.Join(blocker, "backups")

	source := newFakeSource("CoinVault")
	account := source.addAccount("alice", 100)
	registry := provider.NewRegistry()
	require.NoError(t, registry.Register(source, "host", 1, ""))

	enumerator := &sliceEnumerator{accounts: []provider.Account{account}}
	coord := NewCoordinator(registry, DefaultStrategyRegistry(), store, enumerator, nil, cfg)

	result := awaitResult(t, coord.Start(ctx, Options{CreateBackup: true}))

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, errors.ErrBackupWrite.Error())

	// The target resolver never ran: no ledger was created
	_, err := store.FindAnyLedger(ctx)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestCoordinatorVerifyMismatchFailsRun(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)

	source := newDriftingSource("CoinVault")
	account := source.addAccount("alice", 100)
	registry := provider.NewRegistry()
	require.NoError(t, registry.Register(source, "host", 1, ""))

	enumerator := &sliceEnumerator{accounts: []provider.Account{account}}
	coord := NewCoordinator(registry, DefaultStrategyRegistry(), store, enumerator, nil, testConfig(t))

	result := awaitResult(t, coord.Start(ctx, Options{}))

	// Execute succeeded but verification read a larger source balance
	assert.False(t, result.Success)
	assert.Equal(t, errors.ErrVerifyMismatch.Error(), result.ErrorMessage)
	require.NotNil(t, result.Stats)
	assert.Equal(t, 1, result.Stats.Succeeded)
}

func TestCoordinatorPartialFailureReported(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)

	source := newFakeSource("CoinVault")
	good := source.addAccount("good", 50)
	bad := source.addAccount("bad", 75)
	source.failGet[bad.ID] = true

	registry := provider.NewRegistry()
	require.NoError(t, registry.Register(source, "host", 1, ""))

	enumerator := &sliceEnumerator{accounts: []provider.Account{good, bad}}
	coord := NewCoordinator(registry, DefaultStrategyRegistry(), store, enumerator, nil, testConfig(t))

	result := awaitResult(t, coord.Start(ctx, Options{}))

	assert.False(t, result.Success)
	assert.Contains(t, result.ErrorMessage, "1 of 2 accounts failed")
	assert.Equal(t, 1, result.Stats.Succeeded)
	assert.Equal(t, 1, result.Stats.Failed)
}

func TestCoordinatorDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)

	source := newFakeSource("CoinVault")
	account := source.addAccount("alice", 100)
	registry := provider.NewRegistry()
	require.NoError(t, registry.Register(source, "host", 1, ""))

	enumerator := &sliceEnumerator{accounts: []provider.Account{account}}
	coord := NewCoordinator(registry, DefaultStrategyRegistry(), store, enumerator, nil, testConfig(t))

	result := awaitResult(t, coord.Start(ctx, Options{DryRun: true, SwitchProvider: true}))

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Stats.Succeeded)

	// The target ledger exists (resolution runs) but holds no balance
	target, err := store.FindAnyLedger(ctx)
	require.NoError(t, err)
	balance, err := store.FindBalance(ctx, account.ID, target.ID)
	require.NoError(t, err)
	assert.Nil(t, balance)

	// Dry runs never fail over the provider
	active := registry.ActiveRegistration()
	require.NotNil(t, active)
	assert.Equal(t, "CoinVault", active.Provider.Name())
}

func TestCoordinatorExplicitTargetLedger(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)

	source := newFakeSource("CoinVault")
	account := source.addAccount("alice", 100)
	registry := provider.NewRegistry()
	require.NoError(t, registry.Register(source, "host", 1, ""))

	enumerator := &sliceEnumerator{accounts: []provider.Account{account}}
	coord := NewCoordinator(registry, DefaultStrategyRegistry(), store, enumerator, nil, testConfig(t))

	result := awaitResult(t, coord.Start(ctx, Options{TargetLedgerID: "gold"}))

	assert.True(t, result.Success)
	balance, err := store.FindBalance(ctx, account.ID, "gold")
	require.NoError(t, err)
	require.NotNil(t, balance)
	assert.InDelta(t, 100, balance.Amount, 1e-9)
}
