// Package observability collects per-run counters and data quality checks
// for the advisory pipeline.
package observability

import (
	"sort"
	"sync"

	"github.com/echotrust/advisory-backend/model"
)

// RunMetrics accumulates counters during a single pipeline run. It is safe
// for concurrent use by the decide/apply workers.
type RunMetrics struct {
	mu sync.Mutex

	observationsIngested int
	advisoriesTotal      int
	stateChanges         int
	malformedDropped     int
	errors               int

	stateCounts   map[string]int
	reasonCounts  map[string]int
	transitions   map[string]int
	transitionSet []model.StateTransition
	sourceHealth  map[string]model.SourceHealth
}

func NewRunMetrics() *RunMetrics {
	return &RunMetrics{
		stateCounts:  make(map[string]int),
		reasonCounts: make(map[string]int),
		transitions:  make(map[string]int),
		sourceHealth: make(map[string]model.SourceHealth),
	}
}

func (m *RunMetrics) AddObservations(n int) {
	m.mu.Lock()
	m.observationsIngested += n
	m.mu.Unlock()
}

func (m *RunMetrics) AddMalformed(n int) {
	m.mu.Lock()
	m.malformedDropped += n
	m.mu.Unlock()
}

func (m *RunMetrics) AddError() {
	m.mu.Lock()
	m.errors++
	m.mu.Unlock()
}

func (m *RunMetrics) RecordSourceHealth(h model.SourceHealth) {
	m.mu.Lock()
	m.sourceHealth[h.SourceID] = h
	m.mu.Unlock()
}

// RecordDecision counts one decided advisory: its final state, its reason
// code, and, when the state changed, the (advisory_id, old -> new) transition
// both as an "old->new" count and as a tuple in the transition set.
func (m *RunMetrics) RecordDecision(advisoryID, state, reasonCode, previousState string, changed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.advisoriesTotal++
	m.stateCounts[state]++
	m.reasonCounts[reasonCode]++

	if changed {
		m.stateChanges++
		m.transitions[previousState+"->"+state]++
		m.transitionSet = append(m.transitionSet, model.StateTransition{
			AdvisoryID: advisoryID,
			FromState:  previousState,
			ToState:    state,
		})
	}
}

// Snapshot copies the accumulated counters into a PipelineRun.
func (m *RunMetrics) Snapshot(run *model.PipelineRun) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run.ObservationsIngested = m.observationsIngested
	run.AdvisoriesTotal = m.advisoriesTotal
	run.StateChanges = m.stateChanges
	run.MalformedDropped = m.malformedDropped
	run.Errors = m.errors

	run.StateCounts = copyCounts(m.stateCounts)
	run.ReasonCounts = copyCounts(m.reasonCounts)
	run.Transitions = copyCounts(m.transitions)

	// Worker completion order is not deterministic; sort so two identical
	// runs persist identical metadata.
	run.TransitionSet = make([]model.StateTransition, len(m.transitionSet))
	copy(run.TransitionSet, m.transitionSet)
	sort.Slice(run.TransitionSet, func(i, j int) bool {
		return run.TransitionSet[i].AdvisoryID < run.TransitionSet[j].AdvisoryID
	})

	run.SourceHealth = make(map[string]model.SourceHealth, len(m.sourceHealth))
	for k, v := range m.sourceHealth {
		run.SourceHealth[k] = v
	}
}

func copyCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
