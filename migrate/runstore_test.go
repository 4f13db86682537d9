package migrate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lstesting "github.com/ledgershift/ledgershift/internal/testing"
)

func TestRunStoreSaveAndList(t *testing.T) {
	ctx := context.Background()
	runs := NewRunStore(lstesting.CreateTestDB(t))

	started := time.Now().Add(-time.Minute)
	result := &Result{
		RunID:    "run-1",
		Success:  true,
		Provider: "CoinVault",
		Stats: &Stats{
			TotalAccounts:        3,
			Processed:            2,
			Succeeded:            2,
			Failed:               0,
			TotalMigratedBalance: 100,
		},
		StartedAt:   started,
		CompletedAt: started.Add(30 * time.Second),
	}
	require.NoError(t, runs.SaveResult(ctx, result))

	records, err := runs.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "run-1", r.ID)
	assert.Equal(t, "CoinVault", r.Provider)
	assert.True(t, r.Success)
	assert.Equal(t, 3, r.TotalAccounts)
	assert.Equal(t, 2, r.Processed)
	assert.Equal(t, 2, r.Succeeded)
	assert.Equal(t, 0, r.Failed)
	assert.InDelta(t, 100, r.MigratedBalance, 1e-9)
	assert.Empty(t, r.Error)
}

func TestRunStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	runs := NewRunStore(lstesting.CreateTestDB(t))

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"run-old", "run-mid", "run-new"} {
		completed := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, runs.SaveResult(ctx, &Result{
			RunID:       id,
			Provider:    "CoinVault",
			StartedAt:   completed.Add(-10 * time.Second),
			CompletedAt: completed,
		}))
	}

	records, err := runs.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "run-new", records[0].ID)
	assert.Equal(t, "run-mid", records[1].ID)
}

func TestRunStoreSaveWithoutStats(t *testing.T) {
	// Fatal-phase failures produce a Result with nil Stats; the row still
	// persists with zeroed counters.
	ctx := context.Background()
	runs := NewRunStore(lstesting.CreateTestDB(t))

	require.NoError(t, runs.SaveResult(ctx, &Result{
		RunID:        "run-failed",
		Success:      false,
		ErrorMessage: "no active balance provider found",
		StartedAt:    time.Now(),
		CompletedAt:  time.Now(),
	}))

	records, err := runs.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Success)
	assert.Equal(t, 0, records[0].Processed)
	assert.Equal(t, "no active balance provider found", records[0].Error)
}
