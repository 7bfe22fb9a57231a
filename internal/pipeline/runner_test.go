package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/echotrust/advisory-backend/internal/decision"
	"github.com/echotrust/advisory-backend/internal/history"
	"github.com/echotrust/advisory-backend/internal/observability"
	"github.com/echotrust/advisory-backend/internal/resolver"
	"github.com/echotrust/advisory-backend/model"
)

func newTestRunner(t *testing.T, store history.Store) *Runner {
	t.Helper()
	engine, err := decision.NewEngine(decision.DefaultRules(), nil)
	require.NoError(t, err)
	mgr := history.NewManager(store, zap.NewNop())
	return NewRunner(resolver.New(nil), engine, mgr, zap.NewNop(), 4)
}

func boolPtr(b bool) *bool { return &b }

func baseObservations(now time.Time) []model.SourceObservation {
	return []model.SourceObservation{
		{
			SourceID:   model.SourceCorpus,
			VulnID:     "CVE-2024-0001",
			Component:  "pkg:npm/lodash",
			ObservedAt: now,
		},
		{
			SourceID:   model.SourceCorpus,
			VulnID:     "CVE-2024-0002",
			Component:  "pkg:pypi/flask",
			ObservedAt: now,
		},
		{
			SourceID:   model.SourceNVD,
			VulnID:     "CVE-2024-0003",
			ObservedAt: now,
		},
	}
}

func TestRunDecidesEveryAdvisory(t *testing.T) {
	store := history.NewMemoryStore()
	runner := newTestRunner(t, store)
	metrics := observability.NewRunMetrics()
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	err := runner.Run(context.Background(), baseObservations(now), "run_1", now, metrics)
	require.NoError(t, err)

	var run model.PipelineRun
	metrics.Snapshot(&run)
	assert.Equal(t, 3, run.ObservationsIngested)
	assert.Equal(t, 3, run.AdvisoriesTotal)
	assert.Equal(t, 3, run.StateChanges)
	assert.Equal(t, 0, run.MalformedDropped)
	assert.Equal(t, 0, run.Errors)
	assert.Equal(t, 3, run.StateCounts[model.StateUnderInvestigation])
	assert.Equal(t, 3, run.Transitions["unknown->under_investigation"])

	// The transition set names each advisory that changed, sorted by id.
	require.Len(t, run.TransitionSet, 3)
	ids := make([]string, 0, len(run.TransitionSet))
	for _, tr := range run.TransitionSet {
		ids = append(ids, tr.AdvisoryID)
		assert.Equal(t, model.StateUnknown, tr.FromState)
		assert.Equal(t, model.StateUnderInvestigation, tr.ToState)
	}
	assert.Equal(t, []string{"CVE-2024-0003", "pkg:npm/lodash:CVE-2024-0001", "pkg:pypi/flask:CVE-2024-0002"}, ids)

	current, err := store.AllCurrent(context.Background())
	require.NoError(t, err)
	assert.Len(t, current, 3)
}

func TestRerunOverSameInputsWritesNothing(t *testing.T) {
	store := history.NewMemoryStore()
	runner := newTestRunner(t, store)
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	obs := baseObservations(now)

	require.NoError(t, runner.Run(context.Background(), obs, "run_1", now, observability.NewRunMetrics()))

	metrics := observability.NewRunMetrics()
	require.NoError(t, runner.Run(context.Background(), obs, "run_2", now.Add(time.Hour), metrics))

	var run model.PipelineRun
	metrics.Snapshot(&run)
	assert.Equal(t, 3, run.AdvisoriesTotal)
	assert.Equal(t, 0, run.StateChanges, "identical inputs must not create history versions")

	for _, id := range []string{"pkg:npm/lodash:CVE-2024-0001", "pkg:pypi/flask:CVE-2024-0002", "CVE-2024-0003"} {
		hist, err := store.History(context.Background(), id)
		require.NoError(t, err)
		assert.Len(t, hist, 1, id)
		assert.Equal(t, "run_1", hist[0].RunID)
	}
}

func TestFixAppearingCreatesNewVersion(t *testing.T) {
	store := history.NewMemoryStore()
	runner := newTestRunner(t, store)
	t1 := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(24 * time.Hour)

	obs := baseObservations(t1)
	require.NoError(t, runner.Run(context.Background(), obs, "run_1", t1, observability.NewRunMetrics()))

	// Next day the fix aggregator learns about a fix for lodash.
	withFix := append(baseObservations(t2), model.SourceObservation{
		SourceID:     model.SourceOSV,
		VulnID:       "CVE-2024-0001",
		Component:    "pkg:npm/lodash@4.17.20",
		ObservedAt:   t2,
		FixAvailable: boolPtr(true),
		FixedVersion: "4.17.21",
	})

	metrics := observability.NewRunMetrics()
	require.NoError(t, runner.Run(context.Background(), withFix, "run_2", t2, metrics))

	var run model.PipelineRun
	metrics.Snapshot(&run)
	assert.Equal(t, 1, run.StateChanges)
	assert.Equal(t, 1, run.Transitions["under_investigation->fixed"])
	require.Len(t, run.TransitionSet, 1)
	assert.Equal(t, "pkg:npm/lodash:CVE-2024-0001", run.TransitionSet[0].AdvisoryID)

	hist, err := store.History(context.Background(), "pkg:npm/lodash:CVE-2024-0001")
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, model.StateFixed, hist[1].State)
	assert.Equal(t, "4.17.21", hist[1].FixedVersion)

	// The other advisories stayed put.
	hist, err = store.History(context.Background(), "CVE-2024-0003")
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestRunCountsMalformed(t *testing.T) {
	store := history.NewMemoryStore()
	runner := newTestRunner(t, store)
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	obs := append(baseObservations(now), model.SourceObservation{
		SourceID:   model.SourceOSV,
		Component:  "pkg:npm/lodash",
		ObservedAt: now, // no vuln id
	})

	metrics := observability.NewRunMetrics()
	require.NoError(t, runner.Run(context.Background(), obs, "run_1", now, metrics))

	var run model.PipelineRun
	metrics.Snapshot(&run)
	assert.Equal(t, 1, run.MalformedDropped)
	assert.Equal(t, 3, run.AdvisoriesTotal)
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	store := history.NewMemoryStore()
	runner := newTestRunner(t, store)
	now := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := runner.Run(ctx, baseObservations(now), "run_1", now, observability.NewRunMetrics())
	assert.Error(t, err)
}
