package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotrust/advisory-backend/model"
)

func record(historyID string, from time.Time) model.AdvisoryStateRecord {
	return model.AdvisoryStateRecord{
		HistoryID:     historyID,
		AdvisoryID:    "CVE-2024-0001",
		VulnID:        "CVE-2024-0001",
		State:         model.StatePendingUpstream,
		StateType:     model.StateTypeNonFinal,
		EffectiveFrom: from,
	}
}

func TestTransitionRejectsUnexpectedCurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Transition(ctx, record("h1", t0), ""))

	// A second insert that expects no current record must conflict.
	err := store.Transition(ctx, record("h2", t0.Add(time.Hour)), "")
	assert.ErrorIs(t, err, ErrConflict)

	// Superseding a record that is no longer current must conflict.
	require.NoError(t, store.Transition(ctx, record("h2", t0.Add(time.Hour)), "h1"))
	err = store.Transition(ctx, record("h3", t0.Add(2*time.Hour)), "h1")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestTransitionClosesSuperseded(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	require.NoError(t, store.Transition(ctx, record("h1", t0), ""))
	require.NoError(t, store.Transition(ctx, record("h2", t1), "h1"))

	hist, err := store.History(ctx, "CVE-2024-0001")
	require.NoError(t, err)
	require.Len(t, hist, 2)

	assert.False(t, hist[0].IsCurrent)
	require.NotNil(t, hist[0].EffectiveTo)
	assert.True(t, hist[0].EffectiveTo.Equal(t1))
	assert.True(t, hist[1].IsCurrent)
	assert.Nil(t, hist[1].EffectiveTo)
}

func TestAtTimeSubSecondBoundaries(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	// The second version became effective 123ms past noon; a whole-second
	// query at noon must still see the first version.
	t1 := time.Date(2026, 3, 1, 12, 0, 0, 123_000_000, time.UTC)
	noon := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Transition(ctx, record("h1", t0), ""))
	require.NoError(t, store.Transition(ctx, record("h2", t1), "h1"))

	rec, err := store.AtTime(ctx, "CVE-2024-0001", noon)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "h1", rec.HistoryID)

	rec, err = store.AtTime(ctx, "CVE-2024-0001", t1)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "h2", rec.HistoryID)
}
