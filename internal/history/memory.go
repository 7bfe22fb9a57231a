package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/echotrust/advisory-backend/model"
)

// MemoryStore is an in-process Store used by tests and dry runs. Records
// are kept per advisory in insertion order.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]model.AdvisoryStateRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]model.AdvisoryStateRecord)}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) Current(ctx context.Context, advisoryID string) (*model.AdvisoryStateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records[advisoryID] {
		if rec.IsCurrent {
			cp := rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) AtTime(ctx context.Context, advisoryID string, t time.Time) (*model.AdvisoryStateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records[advisoryID] {
		if rec.CoversAt(t) {
			cp := rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) History(ctx context.Context, advisoryID string) ([]model.AdvisoryStateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.records[advisoryID]
	out := make([]model.AdvisoryStateRecord, len(recs))
	copy(out, recs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EffectiveFrom.Before(out[j].EffectiveFrom)
	})
	return out, nil
}

func (s *MemoryStore) AllCurrent(ctx context.Context) ([]model.AdvisoryStateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.AdvisoryStateRecord
	for _, recs := range s.records {
		for _, rec := range recs {
			if rec.IsCurrent {
				out = append(out, rec)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].AdvisoryID < out[j].AdvisoryID
	})
	return out, nil
}

func (s *MemoryStore) Transition(ctx context.Context, rec model.AdvisoryStateRecord, supersedes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.records[rec.AdvisoryID]
	currentIdx := -1
	for i := range recs {
		if recs[i].IsCurrent {
			currentIdx = i
			break
		}
	}

	if supersedes == "" {
		if currentIdx >= 0 {
			return ErrConflict
		}
	} else {
		if currentIdx < 0 || recs[currentIdx].HistoryID != supersedes {
			return ErrConflict
		}
		closed := rec.EffectiveFrom
		recs[currentIdx].EffectiveTo = &closed
		recs[currentIdx].IsCurrent = false
	}

	rec.IsCurrent = true
	rec.EffectiveTo = nil
	s.records[rec.AdvisoryID] = append(recs, rec)
	return nil
}
