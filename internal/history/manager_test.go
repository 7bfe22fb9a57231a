package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/echotrust/advisory-backend/model"
)

var testAdvisory = model.EnrichedAdvisory{
	AdvisoryID: "pkg:npm/lodash:CVE-2024-1111",
	VulnID:     "CVE-2024-1111",
	Component:  "pkg:npm/lodash",
}

func pendingDecision() model.Decision {
	return model.Decision{
		State:       model.StatePendingUpstream,
		StateType:   model.StateTypeNonFinal,
		Confidence:  model.ConfidenceLow,
		ReasonCode:  model.ReasonAwaitingFix,
		Explanation: "No fix currently available upstream.",
		Evidence:    map[string]interface{}{},
	}
}

func fixedDecision() model.Decision {
	return model.Decision{
		State:        model.StateFixed,
		StateType:    model.StateTypeFinal,
		FixedVersion: "4.17.21",
		Confidence:   model.ConfidenceHigh,
		ReasonCode:   model.ReasonUpstreamFix,
		Explanation:  "Fixed upstream in version 4.17.21.",
		Evidence:     map[string]interface{}{},
	}
}

func TestApplyCreatesFirstVersion(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, zap.NewNop())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	res, err := mgr.Apply(context.Background(), testAdvisory, pendingDecision(), "run_1", now)
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.Equal(t, model.StateUnknown, res.PreviousState)

	cur, err := store.Current(context.Background(), testAdvisory.AdvisoryID)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, model.StatePendingUpstream, cur.State)
	assert.True(t, cur.IsCurrent)
	assert.Nil(t, cur.EffectiveTo)
	assert.Equal(t, "run_1", cur.RunID)
	assert.NotEmpty(t, cur.HistoryID)
}

func TestApplyIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, zap.NewNop())
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := mgr.Apply(ctx, testAdvisory, pendingDecision(), "run_1", now)
	require.NoError(t, err)

	// Same material outcome, later run: nothing must be written even though
	// the explanation wording differs.
	again := pendingDecision()
	again.Explanation = "Still no fix available from upstream."
	res, err := mgr.Apply(ctx, testAdvisory, again, "run_2", now.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, res.Changed)

	hist, err := store.History(ctx, testAdvisory.AdvisoryID)
	require.NoError(t, err)
	assert.Len(t, hist, 1)
	assert.Equal(t, "run_1", hist[0].RunID)
}

func TestApplyVersionsOnMaterialChange(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, zap.NewNop())
	ctx := context.Background()
	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	_, err := mgr.Apply(ctx, testAdvisory, pendingDecision(), "run_1", t1)
	require.NoError(t, err)

	res, err := mgr.Apply(ctx, testAdvisory, fixedDecision(), "run_2", t2)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, model.StatePendingUpstream, res.PreviousState)

	hist, err := store.History(ctx, testAdvisory.AdvisoryID)
	require.NoError(t, err)
	require.Len(t, hist, 2)

	old, cur := hist[0], hist[1]
	assert.False(t, old.IsCurrent)
	require.NotNil(t, old.EffectiveTo)
	assert.True(t, old.EffectiveTo.Equal(cur.EffectiveFrom), "closed window must abut the new one")

	assert.True(t, cur.IsCurrent)
	assert.Equal(t, model.StateFixed, cur.State)
	require.NotNil(t, cur.FixedVersionMajor)
	assert.Equal(t, 4, *cur.FixedVersionMajor)
	assert.Equal(t, 17, *cur.FixedVersionMinor)
	assert.Equal(t, 21, *cur.FixedVersionPatch)

	// Exactly one current version at any time.
	currents := 0
	for _, rec := range hist {
		if rec.IsCurrent {
			currents++
		}
	}
	assert.Equal(t, 1, currents)
}

func TestAtTimeAnswersPointInTime(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, zap.NewNop())
	ctx := context.Background()
	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(48 * time.Hour)

	_, err := mgr.Apply(ctx, testAdvisory, pendingDecision(), "run_1", t1)
	require.NoError(t, err)
	_, err = mgr.Apply(ctx, testAdvisory, fixedDecision(), "run_2", t2)
	require.NoError(t, err)

	rec, err := store.AtTime(ctx, testAdvisory.AdvisoryID, t1.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.StatePendingUpstream, rec.State)

	rec, err = store.AtTime(ctx, testAdvisory.AdvisoryID, t2.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, model.StateFixed, rec.State)

	rec, err = store.AtTime(ctx, testAdvisory.AdvisoryID, t1.Add(-time.Hour))
	require.NoError(t, err)
	assert.Nil(t, rec, "no state before the first version")
}

func TestApplyFlagsRegression(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, zap.NewNop())
	ctx := context.Background()
	t1 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := mgr.Apply(ctx, testAdvisory, fixedDecision(), "run_1", t1)
	require.NoError(t, err)

	res, err := mgr.Apply(ctx, testAdvisory, pendingDecision(), "run_2", t1.Add(time.Hour))
	require.NoError(t, err)

	assert.True(t, res.Changed)
	assert.True(t, res.Regression)
	require.NotNil(t, res.Record)
	assert.Equal(t, true, res.Record.Evidence["regression"])
}

// conflictOnceStore injects one write conflict before delegating.
type conflictOnceStore struct {
	*MemoryStore
	conflicted bool
}

func (s *conflictOnceStore) Transition(ctx context.Context, rec model.AdvisoryStateRecord, supersedes string) error {
	if !s.conflicted {
		s.conflicted = true
		return ErrConflict
	}
	return s.MemoryStore.Transition(ctx, rec, supersedes)
}

func TestApplyRetriesOnConflict(t *testing.T) {
	store := &conflictOnceStore{MemoryStore: NewMemoryStore()}
	mgr := NewManager(store, zap.NewNop())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	res, err := mgr.Apply(context.Background(), testAdvisory, pendingDecision(), "run_1", now)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, store.conflicted)

	cur, err := store.Current(context.Background(), testAdvisory.AdvisoryID)
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, model.StatePendingUpstream, cur.State)
}
