package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgershift/ledgershift/errors"
	"github.com/ledgershift/ledgershift/ledger"
	"github.com/ledgershift/ledgershift/provider"
)

func setupExecuteTest(t *testing.T) (*ledger.Store, *ledger.Ledger) {
	t.Helper()
	store := newTestLedgerStore(t)
	target, err := store.CreateLedger(context.Background(), ledger.Spec{ID: "gold"})
	require.NoError(t, err)
	return store, target
}

func targetBalance(t *testing.T, store *ledger.Store, account provider.Account, ledgerID string) float64 {
	t.Helper()
	balance, err := store.FindBalance(context.Background(), account.ID, ledgerID)
	require.NoError(t, err)
	require.NotNil(t, balance)
	return balance.Amount
}

// Source accounts A=100, B=-5, C absent; empty target ledger.
func TestRunBasicScenario(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	a := src.addAccount("alice", 100)
	b := src.addAccount("bob", -5)
	c := provider.Account{Name: "carol"} // absent from source

	executor := NewExecutor(store, ExecutorOptions{})
	stats := executor.Run(ctx, []provider.Account{a, b, c}, src, target, nil)

	assert.Equal(t, 3, stats.TotalAccounts)
	assert.Equal(t, 2, stats.Processed)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 0, stats.Failed)
	assert.Equal(t, 100.0, stats.TotalMigratedBalance)
	assert.True(t, stats.ExecuteSucceeded())

	assert.Equal(t, 100.0, targetBalance(t, store, a, target.ID))
	assert.Equal(t, 0.0, targetBalance(t, store, b, target.ID), "negative balance migrates as zero")

	// C got no identity or balance
	balance, err := store.FindBalance(ctx, c.ID, target.ID)
	require.NoError(t, err)
	assert.Nil(t, balance)
}

// Target already holds A=150; source has A=100. The larger target wins
// and no write is performed.
func TestRunConflictKeepsLargerTarget(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	a := src.addAccount("alice", 100)

	_, err := store.CreateIdentity(ctx, a.ID, a.Name)
	require.NoError(t, err)
	_, err = store.CreateRelationship(ctx, a.ID, target.ID)
	require.NoError(t, err)
	require.NoError(t, store.SetBalance(ctx, a.ID, target.ID, 150))

	before, err := store.FindBalance(ctx, a.ID, target.ID)
	require.NoError(t, err)

	executor := NewExecutor(store, ExecutorOptions{})
	stats := executor.Run(ctx, []provider.Account{a}, src, target, nil)

	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 0.0, stats.TotalMigratedBalance, "nothing was written")
	assert.Equal(t, 150.0, targetBalance(t, store, a, target.ID))

	after, err := store.FindBalance(ctx, a.ID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "no write means no touch")
}

func TestRunConflictSourceLargerWins(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	a := src.addAccount("alice", 200)

	_, err := store.CreateIdentity(ctx, a.ID, a.Name)
	require.NoError(t, err)
	_, err = store.CreateRelationship(ctx, a.ID, target.ID)
	require.NoError(t, err)
	require.NoError(t, store.SetBalance(ctx, a.ID, target.ID, 50))

	executor := NewExecutor(store, ExecutorOptions{})
	stats := executor.Run(ctx, []provider.Account{a}, src, target, nil)

	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 200.0, stats.TotalMigratedBalance)
	assert.Equal(t, 200.0, targetBalance(t, store, a, target.ID))
}

func TestRunIdempotent(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	accounts := []provider.Account{
		src.addAccount("alice", 100),
		src.addAccount("bob", 25.5),
	}

	executor := NewExecutor(store, ExecutorOptions{})
	first := executor.Run(ctx, accounts, src, target, nil)
	require.True(t, first.ExecuteSucceeded())
	assert.Equal(t, 125.5, first.TotalMigratedBalance)

	// Second run against an unchanged source: conflict resolution keeps
	// the equal target balances, so nothing is written
	second := executor.Run(ctx, accounts, src, target, nil)
	assert.True(t, second.ExecuteSucceeded())
	assert.Equal(t, 0.0, second.TotalMigratedBalance)
	assert.Equal(t, 100.0, targetBalance(t, store, accounts[0], target.ID))
	assert.Equal(t, 25.5, targetBalance(t, store, accounts[1], target.ID))
}

func TestRunIsolatesAccountFailures(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	good := src.addAccount("good", 10)
	bad := src.addAccount("bad", 20)
	src.failGet[bad.ID] = true
	alsoGood := src.addAccount("also-good", 30)

	executor := NewExecutor(store, ExecutorOptions{})
	stats := executor.Run(ctx, []provider.Account{good, bad, alsoGood}, src, target, nil)

	assert.Equal(t, 3, stats.Processed)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, stats.Processed, stats.Succeeded+stats.Failed)
	assert.False(t, stats.ExecuteSucceeded())
	assert.Equal(t, 40.0, stats.TotalMigratedBalance)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "source read failed")

	// The failure did not stop later accounts
	assert.Equal(t, 30.0, targetBalance(t, store, alsoGood, target.ID))
}

func TestRunRecoversPanics(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	boom := src.addAccount("boom", 10)
	src.panicGet[boom.ID] = true
	ok := src.addAccount("ok", 5)

	executor := NewExecutor(store, ExecutorOptions{})
	stats := executor.Run(ctx, []provider.Account{boom, ok}, src, target, nil)

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Succeeded)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "panic")
	assert.Equal(t, 5.0, targetBalance(t, store, ok, target.ID))
}

func TestRunBoundsErrorList(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	var accounts []provider.Account
	for i := 0; i < 8; i++ {
		account := src.addAccount("acct", 1)
		src.failGet[account.ID] = true
		accounts = append(accounts, account)
	}

	executor := NewExecutor(store, ExecutorOptions{MaxErrors: 3})
	stats := executor.Run(ctx, accounts, src, target, nil)

	assert.Equal(t, 8, stats.Failed)
	assert.Len(t, stats.Errors, 3, "error list is bounded for display")
}

func TestRunStrategyHook(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	a := src.addAccount("alice", 10)

	strategy := &Strategy{
		Name: "CoinVault",
		Hook: func(ctx context.Context, account provider.Account, balance float64) (float64, error) {
			return balance * 2, nil
		},
	}

	executor := NewExecutor(store, ExecutorOptions{})
	stats := executor.Run(ctx, []provider.Account{a}, src, target, strategy)

	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 20.0, targetBalance(t, store, a, target.ID))
}

func TestRunStrategyHookError(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	a := src.addAccount("alice", 10)

	strategy := &Strategy{
		Name: "CoinVault",
		Hook: func(ctx context.Context, account provider.Account, balance float64) (float64, error) {
			return 0, errors.New("hook rejected balance")
		},
	}

	executor := NewExecutor(store, ExecutorOptions{})
	stats := executor.Run(ctx, []provider.Account{a}, src, target, strategy)

	assert.Equal(t, 1, stats.Failed)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	a := src.addAccount("alice", 100)

	executor := NewExecutor(store, ExecutorOptions{DryRun: true})
	stats := executor.Run(ctx, []provider.Account{a}, src, target, nil)

	assert.Equal(t, 1, stats.Succeeded)
	assert.Equal(t, 100.0, stats.TotalMigratedBalance)

	balance, err := store.FindBalance(ctx, a.ID, target.ID)
	require.NoError(t, err)
	assert.Nil(t, balance, "dry run must not touch the store")
}

func TestRunRateLimited(t *testing.T) {
	ctx := context.Background()
	store, target := setupExecuteTest(t)

	src := newFakeSource("CoinVault")
	accounts := []provider.Account{
		src.addAccount("a", 1),
		src.addAccount("b", 2),
	}

	// High enough to not slow the test; exercises the limiter path
	executor := NewExecutor(store, ExecutorOptions{MaxWritesPerSecond: 10000})
	stats := executor.Run(ctx, accounts, src, target, nil)

	assert.Equal(t, 2, stats.Succeeded)
}
