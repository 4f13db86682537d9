package ledger

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgershift/ledgershift/provider"
)

func TestStoreProvider(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	l, err := store.CreateLedger(ctx, Spec{ID: "gold", Suffix: " coin"})
	require.NoError(t, err)

	p := NewStoreProvider(store, l)
	assert.Equal(t, ProviderName, p.Name())
	assert.True(t, p.IsEnabled())
	assert.Equal(t, "coin", p.CurrencyNameSingular())
	assert.Equal(t, "coins", p.CurrencyNamePlural())

	account := provider.Account{ID: uuid.New(), Name: "steve"}

	has, err := p.HasAccount(ctx, account)
	require.NoError(t, err)
	assert.False(t, has)

	balance, err := p.GetBalance(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, 0.0, balance)

	_, err = store.CreateIdentity(ctx, account.ID, account.Name)
	require.NoError(t, err)
	_, err = store.CreateRelationship(ctx, account.ID, "gold")
	require.NoError(t, err)
	require.NoError(t, store.SetBalance(ctx, account.ID, "gold", 42))

	has, err = p.HasAccount(ctx, account)
	require.NoError(t, err)
	assert.True(t, has)

	balance, err = p.GetBalance(ctx, account)
	require.NoError(t, err)
	assert.Equal(t, 42.0, balance)
}

func TestStoreProviderSuffixFallback(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	l, err := store.CreateLedger(ctx, Spec{ID: "gold"})
	require.NoError(t, err)

	p := NewStoreProvider(store, l)
	assert.Equal(t, "gold", p.CurrencyNameSingular())
}
