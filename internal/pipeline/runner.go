// Package pipeline orchestrates one batch run: group observations by
// identity, resolve each group, decide, and apply to the state history.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/echotrust/advisory-backend/internal/aggregator"
	"github.com/echotrust/advisory-backend/internal/decision"
	"github.com/echotrust/advisory-backend/internal/history"
	"github.com/echotrust/advisory-backend/internal/observability"
	"github.com/echotrust/advisory-backend/internal/resolver"
	"github.com/echotrust/advisory-backend/model"
)

// Runner drives the resolve -> decide -> apply stages. Decisions run in
// parallel across advisories; writes for one advisory are serialized by the
// history manager, so parallelism never reorders a single advisory's
// history.
type Runner struct {
	resolver *resolver.Resolver
	engine   *decision.Engine
	manager  *history.Manager
	logger   *zap.Logger
	workers  int
}

func NewRunner(res *resolver.Resolver, engine *decision.Engine, manager *history.Manager, logger *zap.Logger, workers int) *Runner {
	if workers <= 0 {
		workers = 8
	}
	return &Runner{
		resolver: res,
		engine:   engine,
		manager:  manager,
		logger:   logger,
		workers:  workers,
	}
}

// Run processes one batch of observations under the given run id. A failure
// on one advisory is counted and logged but never aborts the batch; only a
// cancelled context stops the run early.
func (r *Runner) Run(ctx context.Context, observations []model.SourceObservation, runID string, now time.Time, metrics *observability.RunMetrics) error {
	grouped := aggregator.GroupObservations(observations)
	metrics.AddObservations(len(observations))
	metrics.AddMalformed(grouped.MalformedDropped)

	if grouped.MalformedDropped > 0 {
		r.logger.Sugar().Warnf("Dropped %d observations with malformed identity", grouped.MalformedDropped)
	}

	// Stable submission order keeps logs comparable between runs. Outcomes
	// never depend on it; each advisory is independent.
	ids := make([]string, 0, len(grouped.Groups))
	for id := range grouped.Groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	work := make(chan *aggregator.Group)
	var wg sync.WaitGroup

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for g := range work {
				if err := r.process(ctx, g, runID, now, metrics); err != nil {
					metrics.AddError()
					r.logger.Sugar().Errorf("Advisory %s failed: %v", g.AdvisoryID, err)
				}
			}
		}()
	}

	var canceled error
	for _, id := range ids {
		select {
		case <-ctx.Done():
			canceled = ctx.Err()
		case work <- grouped.Groups[id]:
			continue
		}
		break
	}
	close(work)
	wg.Wait()

	if canceled != nil {
		return fmt.Errorf("run %s interrupted: %w", runID, canceled)
	}
	return nil
}

func (r *Runner) process(ctx context.Context, g *aggregator.Group, runID string, now time.Time, metrics *observability.RunMetrics) error {
	adv := r.resolver.Resolve(g)

	d, err := r.engine.Decide(adv)
	if err != nil {
		return fmt.Errorf("deciding: %w", err)
	}

	result, err := r.manager.Apply(ctx, adv, d, runID, now)
	if err != nil {
		return fmt.Errorf("applying: %w", err)
	}

	metrics.RecordDecision(adv.AdvisoryID, d.State, d.ReasonCode, result.PreviousState, result.Changed)

	if result.Changed {
		r.logger.Sugar().Infof("Advisory %s: %s -> %s (%s)",
			adv.AdvisoryID, result.PreviousState, d.State, d.ReasonCode)
	}
	return nil
}
