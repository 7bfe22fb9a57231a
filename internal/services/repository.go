// Package services ties ingestion, the pipeline core, and persistence into
// the operations the API surfaces call.
package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"

	"github.com/echotrust/advisory-backend/database"
	"github.com/echotrust/advisory-backend/model"
)

// RunRepository persists pipeline run metadata and the observation audit
// log. Both are append-only.
type RunRepository interface {
	SaveRun(ctx context.Context, run *model.PipelineRun) error
	GetRun(ctx context.Context, runID string) (*model.PipelineRun, error)
	ListRuns(ctx context.Context, limit int) ([]model.PipelineRun, error)
	LogObservations(ctx context.Context, runID string, observations []model.SourceObservation, now time.Time) error
}

// ArangoRunRepository stores runs and observation log entries in their
// dedicated collections.
type ArangoRunRepository struct {
	db database.DBConnection
}

func NewArangoRunRepository(db database.DBConnection) *ArangoRunRepository {
	return &ArangoRunRepository{db: db}
}

func (r *ArangoRunRepository) SaveRun(ctx context.Context, run *model.PipelineRun) error {
	run.ObjType = "PipelineRun"

	query := `
		UPSERT { run_id: @run_id }
			INSERT @run
			REPLACE @run
		IN pipeline_run
	`
	bindVars := map[string]interface{}{
		"run_id": run.RunID,
		"run":    run,
	}

	_, err := r.db.Database.Query(ctx, query, &arangodb.QueryOptions{BindVars: bindVars})
	return err
}

func (r *ArangoRunRepository) GetRun(ctx context.Context, runID string) (*model.PipelineRun, error) {
	query := `
		FOR run IN pipeline_run
			FILTER run.run_id == @run_id
			LIMIT 1
			RETURN run
	`
	cursor, err := r.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"run_id": runID},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	if cursor.HasMore() {
		var run model.PipelineRun
		if _, err := cursor.ReadDocument(ctx, &run); err != nil {
			return nil, err
		}
		return &run, nil
	}
	return nil, nil
}

func (r *ArangoRunRepository) ListRuns(ctx context.Context, limit int) ([]model.PipelineRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		FOR run IN pipeline_run
			SORT run.started_at DESC
			LIMIT @limit
			RETURN run
	`
	cursor, err := r.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"limit": limit},
	})
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var out []model.PipelineRun
	for cursor.HasMore() {
		var run model.PipelineRun
		if _, err := cursor.ReadDocument(ctx, &run); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

func (r *ArangoRunRepository) LogObservations(ctx context.Context, runID string, observations []model.SourceObservation, now time.Time) error {
	if len(observations) == 0 {
		return nil
	}

	entries := make([]model.ObservationLogEntry, 0, len(observations))
	for _, obs := range observations {
		entries = append(entries, model.ObservationLogEntry{
			RunID:             runID,
			ObjType:           "ObservationLogEntry",
			SourceObservation: obs,
			LoggedAt:          now,
		})
	}

	query := `
		FOR entry IN @entries
			INSERT entry INTO observation_log
	`
	_, err := r.db.Database.Query(ctx, query, &arangodb.QueryOptions{
		BindVars: map[string]interface{}{"entries": entries},
	})
	return err
}

// MemoryRunRepository is the in-process repository used by tests.
type MemoryRunRepository struct {
	mu           sync.Mutex
	runs         map[string]model.PipelineRun
	observations map[string][]model.ObservationLogEntry
}

func NewMemoryRunRepository() *MemoryRunRepository {
	return &MemoryRunRepository{
		runs:         make(map[string]model.PipelineRun),
		observations: make(map[string][]model.ObservationLogEntry),
	}
}

func (r *MemoryRunRepository) SaveRun(ctx context.Context, run *model.PipelineRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run.ObjType = "PipelineRun"
	r.runs[run.RunID] = *run
	return nil
}

func (r *MemoryRunRepository) GetRun(ctx context.Context, runID string) (*model.PipelineRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if run, ok := r.runs[runID]; ok {
		return &run, nil
	}
	return nil, nil
}

func (r *MemoryRunRepository) ListRuns(ctx context.Context, limit int) ([]model.PipelineRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.PipelineRun, 0, len(r.runs))
	for _, run := range r.runs {
		out = append(out, run)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRunRepository) LogObservations(ctx context.Context, runID string, observations []model.SourceObservation, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, obs := range observations {
		r.observations[runID] = append(r.observations[runID], model.ObservationLogEntry{
			RunID:             runID,
			ObjType:           "ObservationLogEntry",
			SourceObservation: obs,
			LoggedAt:          now,
		})
	}
	return nil
}

// Observations returns the audit log entries for a run, test helper.
func (r *MemoryRunRepository) Observations(runID string) []model.ObservationLogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.ObservationLogEntry(nil), r.observations[runID]...)
}
