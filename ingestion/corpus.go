package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/echotrust/advisory-backend/model"
)

// corpusEntry is one row of the base advisory corpus: the set of advisories
// the pipeline tracks, before any enrichment.
type corpusEntry struct {
	VulnID    string `json:"vuln_id"`
	Component string `json:"component,omitempty"`
	Notes     string `json:"notes,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// CorpusAdapter reads the base advisory corpus. It carries identity and
// notes only, so its observations rank last and mostly serve to keep
// advisories in the pipeline that no enrichment source mentions.
type CorpusAdapter struct {
	Path string
	Now  func() time.Time
}

func NewCorpusAdapter(path string) *CorpusAdapter {
	return &CorpusAdapter{Path: path, Now: time.Now}
}

func (a *CorpusAdapter) SourceID() string {
	return model.SourceCorpus
}

func (a *CorpusAdapter) Fetch(ctx context.Context) ([]model.SourceObservation, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus: %w", err)
	}

	var entries []corpusEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing corpus: %w", err)
	}

	now := a.Now()
	out := make([]model.SourceObservation, 0, len(entries))

	for _, e := range entries {
		obs := model.SourceObservation{
			ObservationID: uuid.New().String(),
			SourceID:      model.SourceCorpus,
			VulnID:        e.VulnID,
			Component:     e.Component,
			ObservedAt:    now,
			Notes:         e.Notes,
		}
		if e.UpdatedAt != "" {
			if ts, err := time.Parse(time.RFC3339, e.UpdatedAt); err == nil {
				obs.SourceUpdatedAt = &ts
			}
		}
		out = append(out, obs)
	}

	return out, nil
}
