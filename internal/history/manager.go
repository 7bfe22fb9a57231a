package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/echotrust/advisory-backend/model"
	"github.com/echotrust/advisory-backend/util"
)

// conflictRetries bounds how many times an apply re-reads and retries after
// a concurrent write conflict before giving up.
const conflictRetries = 5

// ApplyResult reports what happened when a decision was applied.
type ApplyResult struct {
	Changed       bool
	Regression    bool
	PreviousState string
	Record        *model.AdvisoryStateRecord
}

// Manager applies decisions to the state history. It serializes writes per
// advisory id so two workers deciding the same advisory cannot interleave,
// and it skips writes when nothing material changed so re-running a pipeline
// over the same inputs leaves the history untouched.
type Manager struct {
	store  Store
	logger *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewManager(store Store, logger *zap.Logger) *Manager {
	return &Manager{
		store:  store,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (m *Manager) advisoryLock(advisoryID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.locks[advisoryID]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[advisoryID] = lock
	}
	return lock
}

// materiallyDifferent reports whether a decision warrants a new history
// version. Only state, fixed version, confidence, and reason code count;
// explanation re-wording or evidence detail alone never create a version.
func materiallyDifferent(cur *model.AdvisoryStateRecord, d model.Decision) bool {
	if cur == nil {
		return true
	}
	return cur.State != d.State ||
		cur.FixedVersion != d.FixedVersion ||
		cur.Confidence != d.Confidence ||
		cur.ReasonCode != d.ReasonCode
}

// Apply writes one decision for one advisory, creating a new SCD2 version
// when the decision materially differs from the current record. Write
// conflicts are retried with backoff after re-reading the current record,
// since the re-read decision may no longer differ.
func (m *Manager) Apply(ctx context.Context, adv model.EnrichedAdvisory, d model.Decision, runID string, now time.Time) (ApplyResult, error) {
	lock := m.advisoryLock(adv.AdvisoryID)
	lock.Lock()
	defer lock.Unlock()

	var result ApplyResult

	bo := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), conflictRetries)
	err := backoff.Retry(func() error {
		var err error
		result, err = m.applyOnce(ctx, adv, d, runID, now)
		if errors.Is(err, ErrConflict) {
			m.logger.Sugar().Warnf("Write conflict on advisory %s, retrying", adv.AdvisoryID)
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(bo, ctx))

	return result, err
}

func (m *Manager) applyOnce(ctx context.Context, adv model.EnrichedAdvisory, d model.Decision, runID string, now time.Time) (ApplyResult, error) {
	cur, err := m.store.Current(ctx, adv.AdvisoryID)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("reading current state for %s: %w", adv.AdvisoryID, err)
	}

	previousState := model.StateUnknown
	supersedes := ""
	if cur != nil {
		previousState = cur.State
		supersedes = cur.HistoryID
	}

	if !materiallyDifferent(cur, d) {
		return ApplyResult{Changed: false, PreviousState: previousState, Record: cur}, nil
	}

	regression := cur != nil && model.IsFinalState(cur.State) && !model.IsFinalState(d.State)
	if regression {
		m.logger.Sugar().Warnf("Regression on advisory %s: %s -> %s (%s)",
			adv.AdvisoryID, cur.State, d.State, d.ReasonCode)
	}

	rec := buildRecord(adv, d, runID, now, regression)

	if err := m.store.Transition(ctx, rec, supersedes); err != nil {
		return ApplyResult{}, err
	}

	return ApplyResult{
		Changed:       true,
		Regression:    regression,
		PreviousState: previousState,
		Record:        &rec,
	}, nil
}

func buildRecord(adv model.EnrichedAdvisory, d model.Decision, runID string, now time.Time, regression bool) model.AdvisoryStateRecord {
	evidence := make(map[string]interface{}, len(d.Evidence)+1)
	for k, v := range d.Evidence {
		evidence[k] = v
	}
	if regression {
		evidence["regression"] = true
	}

	rec := model.AdvisoryStateRecord{
		HistoryID:           uuid.New().String(),
		AdvisoryID:          adv.AdvisoryID,
		VulnID:              adv.VulnID,
		Component:           adv.Component,
		State:               d.State,
		StateType:           d.StateType,
		FixedVersion:        d.FixedVersion,
		Confidence:          d.Confidence,
		Explanation:         d.Explanation,
		ReasonCode:          d.ReasonCode,
		Evidence:            evidence,
		RuleID:              d.RuleID,
		ContributingSources: d.ContributingSources,
		DissentingSources:   d.DissentingSources,
		EffectiveFrom:       now.UTC(),
		IsCurrent:           true,
		RunID:               runID,
		ObjType:             "AdvisoryStateRecord",
		CreatedAt:           now.UTC(),
	}

	if d.FixedVersion != "" {
		parsed := util.ParseSemanticVersion(d.FixedVersion)
		rec.FixedVersionMajor = parsed.Major
		rec.FixedVersionMinor = parsed.Minor
		rec.FixedVersionPatch = parsed.Patch
	}

	return rec
}
