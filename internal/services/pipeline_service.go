package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/echotrust/advisory-backend/ingestion"
	"github.com/echotrust/advisory-backend/internal/history"
	"github.com/echotrust/advisory-backend/internal/observability"
	"github.com/echotrust/advisory-backend/internal/pipeline"
	"github.com/echotrust/advisory-backend/model"
)

// ErrRunInProgress is returned when a run is triggered while another run
// holds the single execution slot.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// PipelineService owns the run lifecycle: fetch, audit-log, process, check,
// persist. One run at a time; a trigger while a run is active fails with
// ErrRunInProgress instead of queueing.
type PipelineService struct {
	adapters []ingestion.Adapter
	runner   *pipeline.Runner
	store    history.Store
	repo     RunRepository
	quality  *observability.QualityChecker
	prom     *observability.PrometheusMetrics
	logger   *zap.Logger

	runMu chan struct{}
	Now   func() time.Time
}

func NewPipelineService(adapters []ingestion.Adapter, runner *pipeline.Runner, store history.Store, repo RunRepository, quality *observability.QualityChecker, prom *observability.PrometheusMetrics, logger *zap.Logger) *PipelineService {
	return &PipelineService{
		adapters: adapters,
		runner:   runner,
		store:    store,
		repo:     repo,
		quality:  quality,
		prom:     prom,
		logger:   logger,
		runMu:    make(chan struct{}, 1),
		Now:      time.Now,
	}
}

// newRunID builds a sortable run identifier with a short random suffix so
// two runs starting in the same second never collide.
func newRunID(now time.Time) string {
	return fmt.Sprintf("run_%s_%s", now.UTC().Format("20060102_150405"), uuid.New().String()[:8])
}

// Execute performs one full pipeline run and returns its persisted
// metadata. Unreachable storage aborts before any source is fetched;
// per-source and per-advisory failures are recorded and the run completes.
func (s *PipelineService) Execute(ctx context.Context) (*model.PipelineRun, error) {
	select {
	case s.runMu <- struct{}{}:
		defer func() { <-s.runMu }()
	default:
		return nil, ErrRunInProgress
	}

	now := s.Now().UTC()
	run := &model.PipelineRun{
		RunID:     newRunID(now),
		Status:    model.RunStatusRunning,
		StartedAt: now,
		CreatedAt: now,
	}

	if err := s.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("state store unreachable, refusing to start run: %w", err)
	}

	s.logger.Sugar().Infof("Starting pipeline run %s", run.RunID)
	if err := s.repo.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("recording run start: %w", err)
	}

	metrics := observability.NewRunMetrics()

	observations, health := ingestion.FetchAll(ctx, s.adapters, now)
	for _, h := range health {
		metrics.RecordSourceHealth(h)
		if !h.Healthy {
			s.logger.Sugar().Warnf("Source %s unhealthy: %s", h.SourceID, h.ErrorMessage)
		}
	}

	if err := s.repo.LogObservations(ctx, run.RunID, observations, now); err != nil {
		s.logger.Sugar().Errorf("Observation audit log write failed: %v", err)
		metrics.AddError()
	}

	runErr := s.runner.Run(ctx, observations, run.RunID, now, metrics)

	if notes, err := s.quality.Check(ctx, s.Now().UTC()); err != nil {
		s.logger.Sugar().Errorf("Quality checks failed: %v", err)
		metrics.AddError()
	} else {
		run.QualityNotes = notes
	}

	metrics.Snapshot(run)

	completed := s.Now().UTC()
	run.CompletedAt = &completed
	run.Status = model.RunStatusCompleted
	if runErr != nil {
		run.Status = model.RunStatusFailed
	}

	if err := s.repo.SaveRun(ctx, run); err != nil {
		return run, fmt.Errorf("recording run completion: %w", err)
	}

	if s.prom != nil {
		s.prom.ObserveRun(run)
	}

	s.logger.Sugar().Infof("Pipeline run %s %s: %d advisories, %d state changes, %d errors",
		run.RunID, run.Status, run.AdvisoriesTotal, run.StateChanges, run.Errors)

	return run, runErr
}

// ExecuteBatch runs the pipeline over an out-of-band observation batch,
// skipping the adapter fetch. Pushed batches get their own run id and the
// same audit logging, quality checks, and metrics as a scheduled run.
func (s *PipelineService) ExecuteBatch(ctx context.Context, observations []model.SourceObservation) (*model.PipelineRun, error) {
	select {
	case s.runMu <- struct{}{}:
		defer func() { <-s.runMu }()
	default:
		return nil, ErrRunInProgress
	}

	now := s.Now().UTC()
	run := &model.PipelineRun{
		RunID:     newRunID(now),
		Status:    model.RunStatusRunning,
		StartedAt: now,
		CreatedAt: now,
	}

	if err := s.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("state store unreachable, refusing to start run: %w", err)
	}

	if err := s.repo.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("recording run start: %w", err)
	}

	metrics := observability.NewRunMetrics()

	if err := s.repo.LogObservations(ctx, run.RunID, observations, now); err != nil {
		s.logger.Sugar().Errorf("Observation audit log write failed: %v", err)
		metrics.AddError()
	}

	runErr := s.runner.Run(ctx, observations, run.RunID, now, metrics)
	metrics.Snapshot(run)

	completed := s.Now().UTC()
	run.CompletedAt = &completed
	run.Status = model.RunStatusCompleted
	if runErr != nil {
		run.Status = model.RunStatusFailed
	}

	if err := s.repo.SaveRun(ctx, run); err != nil {
		return run, fmt.Errorf("recording run completion: %w", err)
	}

	if s.prom != nil {
		s.prom.ObserveRun(run)
	}

	return run, runErr
}

// GetRun returns one run's metadata.
func (s *PipelineService) GetRun(ctx context.Context, runID string) (*model.PipelineRun, error) {
	return s.repo.GetRun(ctx, runID)
}

// ListRuns returns the most recent runs.
func (s *PipelineService) ListRuns(ctx context.Context, limit int) ([]model.PipelineRun, error) {
	return s.repo.ListRuns(ctx, limit)
}
