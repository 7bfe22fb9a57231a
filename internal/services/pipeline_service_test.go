package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/echotrust/advisory-backend/ingestion"
	"github.com/echotrust/advisory-backend/internal/decision"
	"github.com/echotrust/advisory-backend/internal/history"
	"github.com/echotrust/advisory-backend/internal/observability"
	"github.com/echotrust/advisory-backend/internal/pipeline"
	"github.com/echotrust/advisory-backend/internal/resolver"
	"github.com/echotrust/advisory-backend/model"
)

// stubAdapter feeds fixed observations, optionally failing.
type stubAdapter struct {
	id  string
	obs []model.SourceObservation
	err error
}

func (a *stubAdapter) SourceID() string { return a.id }

func (a *stubAdapter) Fetch(ctx context.Context) ([]model.SourceObservation, error) {
	return a.obs, a.err
}

func newTestService(t *testing.T, adapters []ingestion.Adapter) (*PipelineService, *history.MemoryStore, *MemoryRunRepository) {
	t.Helper()

	store := history.NewMemoryStore()
	repo := NewMemoryRunRepository()
	engine, err := decision.NewEngine(decision.DefaultRules(), nil)
	require.NoError(t, err)

	runner := pipeline.NewRunner(resolver.New(nil), engine, history.NewManager(store, zap.NewNop()), zap.NewNop(), 2)
	svc := NewPipelineService(adapters, runner, store, repo, observability.NewQualityChecker(store), nil, zap.NewNop())
	svc.Now = func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) }
	return svc, store, repo
}

func TestExecuteFullRun(t *testing.T) {
	adapters := []ingestion.Adapter{
		&stubAdapter{id: model.SourceCorpus, obs: []model.SourceObservation{
			{SourceID: model.SourceCorpus, VulnID: "CVE-2024-0001", Component: "pkg:npm/lodash"},
		}},
		&stubAdapter{id: model.SourceOSV, err: errors.New("feed unavailable")},
	}

	svc, store, repo := newTestService(t, adapters)

	run, err := svc.Execute(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Contains(t, run.RunID, "run_20260601_090000")
	assert.Equal(t, 1, run.ObservationsIngested)
	assert.Equal(t, 1, run.AdvisoriesTotal)
	assert.Equal(t, 1, run.StateChanges)
	require.NotNil(t, run.CompletedAt)

	// One source failed, the run still completed and recorded it.
	require.Contains(t, run.SourceHealth, model.SourceOSV)
	assert.False(t, run.SourceHealth[model.SourceOSV].Healthy)
	assert.True(t, run.SourceHealth[model.SourceCorpus].Healthy)

	// Run metadata and audit log persisted.
	saved, err := repo.GetRun(context.Background(), run.RunID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, model.RunStatusCompleted, saved.Status)
	assert.Len(t, repo.Observations(run.RunID), 1)

	cur, err := store.Current(context.Background(), "pkg:npm/lodash:CVE-2024-0001")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, run.RunID, cur.RunID)
}

func TestExecuteIsIdempotentAcrossRuns(t *testing.T) {
	adapters := []ingestion.Adapter{
		&stubAdapter{id: model.SourceCorpus, obs: []model.SourceObservation{
			{SourceID: model.SourceCorpus, VulnID: "CVE-2024-0001", Component: "pkg:npm/lodash"},
		}},
	}
	svc, store, _ := newTestService(t, adapters)

	first, err := svc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.StateChanges)

	second, err := svc.Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.StateChanges)
	assert.NotEqual(t, first.RunID, second.RunID)

	hist, err := store.History(context.Background(), "pkg:npm/lodash:CVE-2024-0001")
	require.NoError(t, err)
	assert.Len(t, hist, 1)
}

func TestExecuteBatchSkipsAdapters(t *testing.T) {
	// No adapters configured; pushed batches still process.
	svc, store, _ := newTestService(t, nil)

	run, err := svc.ExecuteBatch(context.Background(), []model.SourceObservation{
		{SourceID: model.SourceOSV, VulnID: "CVE-2024-0009", Component: "pkg:pypi/flask"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.RunStatusCompleted, run.Status)
	assert.Equal(t, 1, run.AdvisoriesTotal)

	cur, err := store.Current(context.Background(), "pkg:pypi/flask:CVE-2024-0009")
	require.NoError(t, err)
	require.NotNil(t, cur)
}

// blockingAdapter parks Fetch until released, signalling once it is entered.
type blockingAdapter struct {
	id      string
	entered chan struct{}
	release chan struct{}
}

func (a *blockingAdapter) SourceID() string { return a.id }

func (a *blockingAdapter) Fetch(ctx context.Context) ([]model.SourceObservation, error) {
	close(a.entered)
	<-a.release
	return nil, nil
}

func TestExecuteRejectsConcurrentTrigger(t *testing.T) {
	blocking := &blockingAdapter{
		id:      model.SourceCorpus,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc, _, _ := newTestService(t, []ingestion.Adapter{blocking})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Execute(context.Background())
		done <- err
	}()

	// The first run holds the execution slot while fetching.
	<-blocking.entered

	run, err := svc.Execute(context.Background())
	assert.Nil(t, run)
	assert.ErrorIs(t, err, ErrRunInProgress)

	_, err = svc.ExecuteBatch(context.Background(), nil)
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(blocking.release)
	require.NoError(t, <-done)

	// The slot is free again once the first run finishes.
	_, err = svc.ExecuteBatch(context.Background(), nil)
	require.NoError(t, err)
}

func TestAdvisoryServicePublished(t *testing.T) {
	adapters := []ingestion.Adapter{
		&stubAdapter{id: model.SourceCorpus, obs: []model.SourceObservation{
			{SourceID: model.SourceCorpus, VulnID: "CVE-2024-0001", Component: "pkg:npm/lodash"},
		}},
	}
	svc, store, _ := newTestService(t, adapters)

	_, err := svc.Execute(context.Background())
	require.NoError(t, err)

	advSvc := NewAdvisoryService(store)
	published, err := advSvc.Published(context.Background())
	require.NoError(t, err)
	require.Len(t, published, 1)

	p := published[0]
	assert.Equal(t, "pkg:npm/lodash:CVE-2024-0001", p.AdvisoryID)
	assert.Equal(t, model.StateUnderInvestigation, p.State)
	assert.NotEmpty(t, p.Explanation)
	assert.Equal(t, []string{model.SourceCorpus}, p.ContributingSources)

	counts, err := advSvc.StateCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{model.StateUnderInvestigation: 1}, counts)
}
