package services

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/echotrust/advisory-backend/internal/history"
	"github.com/echotrust/advisory-backend/model"
)

// PublishedAdvisory is the downstream projection of one current state
// record: identity, state, and explanation, without internal bookkeeping
// like history ids or run ids.
type PublishedAdvisory struct {
	AdvisoryID   string `json:"advisory_id"`
	VulnID       string `json:"vuln_id"`
	Component    string `json:"component,omitempty"`
	State        string `json:"state"`
	FixedVersion string `json:"fixed_version,omitempty"`
	Confidence   string `json:"confidence"`
	Explanation  string `json:"explanation"`
	ReasonCode   string `json:"reason_code"`

	ContributingSources []string  `json:"contributing_sources"`
	EffectiveFrom       time.Time `json:"effective_from"`
}

// AdvisoryService exposes read access to the state history.
type AdvisoryService struct {
	store history.Store
}

func NewAdvisoryService(store history.Store) *AdvisoryService {
	return &AdvisoryService{store: store}
}

// Current returns the advisory's current state record, nil when untracked.
func (s *AdvisoryService) Current(ctx context.Context, advisoryID string) (*model.AdvisoryStateRecord, error) {
	return s.store.Current(ctx, advisoryID)
}

// History returns every version of an advisory, oldest first.
func (s *AdvisoryService) History(ctx context.Context, advisoryID string) ([]model.AdvisoryStateRecord, error) {
	return s.store.History(ctx, advisoryID)
}

// AtTime answers "what did we believe about this advisory at time t".
func (s *AdvisoryService) AtTime(ctx context.Context, advisoryID string, t time.Time) (*model.AdvisoryStateRecord, error) {
	return s.store.AtTime(ctx, advisoryID, t)
}

// Published projects every current record into the downstream shape.
func (s *AdvisoryService) Published(ctx context.Context) ([]PublishedAdvisory, error) {
	records, err := s.store.AllCurrent(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]PublishedAdvisory, 0, len(records))
	for _, rec := range records {
		out = append(out, PublishedAdvisory{
			AdvisoryID:          rec.AdvisoryID,
			VulnID:              rec.VulnID,
			Component:           rec.Component,
			State:               rec.State,
			FixedVersion:        rec.FixedVersion,
			Confidence:          rec.Confidence,
			Explanation:         rec.Explanation,
			ReasonCode:          rec.ReasonCode,
			ContributingSources: rec.ContributingSources,
			EffectiveFrom:       rec.EffectiveFrom,
		})
	}
	return out, nil
}

// StateCounts tallies current records per lifecycle state.
func (s *AdvisoryService) StateCounts(ctx context.Context) (map[string]int, error) {
	records, err := s.store.AllCurrent(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, rec := range records {
		counts[rec.State]++
	}
	return counts, nil
}

// Export writes the publication projection as indented JSON.
func (s *AdvisoryService) Export(ctx context.Context, w io.Writer) error {
	published, err := s.Published(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(published)
}
