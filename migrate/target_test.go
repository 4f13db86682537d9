package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgershift/ledgershift/ledger"
)

func TestResolveExplicitExisting(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)

	_, err := store.CreateLedger(ctx, ledger.Spec{ID: "gold", Suffix: " gold"})
	require.NoError(t, err)

	resolved, err := NewTargetResolver(store).Resolve(ctx, "gold", newFakeSource("CoinVault"))
	require.NoError(t, err)
	assert.Equal(t, "gold", resolved.ID)
	assert.Equal(t, " gold", resolved.Suffix, "existing ledger is reused as-is")
}

func TestResolveExplicitMissingCreates(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)

	resolved, err := NewTargetResolver(store).Resolve(ctx, "gold", newFakeSource("CoinVault"))
	require.NoError(t, err)
	assert.Equal(t, "gold", resolved.ID)
	assert.Equal(t, " coin", resolved.Suffix, "display text is seeded from the source currency")

	// Persisted, not just returned
	found, err := store.FindLedger(ctx, "gold")
	require.NoError(t, err)
	assert.Equal(t, resolved.ID, found.ID)
}

func TestResolveReusesExistingLedger(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)

	_, err := store.CreateLedger(ctx, ledger.Spec{ID: "emerald"})
	require.NoError(t, err)

	resolved, err := NewTargetResolver(store).Resolve(ctx, "", newFakeSource("CoinVault"))
	require.NoError(t, err)
	assert.Equal(t, "emerald", resolved.ID)
}

func TestResolveCreatesFromCurrencyName(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)

	src := newFakeSource("CoinVault")
	src.currency = "Doubloon"

	resolved, err := NewTargetResolver(store).Resolve(ctx, "", src)
	require.NoError(t, err)
	assert.Equal(t, "doubloon", resolved.ID)
	assert.Equal(t, " Doubloon", resolved.Suffix)
	assert.Equal(t, ledger.DefaultSymbol, resolved.Symbol)
}

func TestResolveEmptyCurrencyFallback(t *testing.T) {
	ctx := context.Background()
	store := newTestLedgerStore(t)

	src := newFakeSource("CoinVault")
	src.currency = ""

	resolved, err := NewTargetResolver(store).Resolve(ctx, "", src)
	require.NoError(t, err)
	assert.Equal(t, "migrated", resolved.ID)
}
