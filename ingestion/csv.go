package ingestion

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/echotrust/advisory-backend/model"
)

// CSVAdapter reads the analyst-maintained override sheet. Expected columns:
//
//	vuln_id,component,status,reason,updated_at
//
// status is one of not_applicable or wont_fix; updated_at is RFC 3339 and
// optional. Later rows for the same (vuln_id, component) replace earlier
// ones, matching how analysts append corrections to the sheet.
type CSVAdapter struct {
	Path string
	Now  func() time.Time
}

func NewCSVAdapter(path string) *CSVAdapter {
	return &CSVAdapter{Path: path, Now: time.Now}
}

func (a *CSVAdapter) SourceID() string {
	return model.SourceInternalCSV
}

func (a *CSVAdapter) Fetch(ctx context.Context) ([]model.SourceObservation, error) {
	f, err := os.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("opening override sheet: %w", err)
	}
	defer f.Close()

	return a.parse(f)
}

func (a *CSVAdapter) parse(r io.Reader) ([]model.SourceObservation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading override sheet header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"vuln_id", "status"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("override sheet missing %q column", required)
		}
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	now := a.Now()
	latest := make(map[string]model.SourceObservation)
	var order []string

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading override sheet: %w", err)
		}

		obs := model.SourceObservation{
			ObservationID:  uuid.New().String(),
			SourceID:       model.SourceInternalCSV,
			VulnID:         field(row, "vuln_id"),
			Component:      field(row, "component"),
			ObservedAt:     now,
			OverrideStatus: normalizeOverride(field(row, "status")),
			OverrideReason: field(row, "reason"),
		}

		if ts := field(row, "updated_at"); ts != "" {
			if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
				obs.SourceUpdatedAt = &parsed
			}
		}

		key := obs.Component + ":" + obs.VulnID
		if _, seen := latest[key]; !seen {
			order = append(order, key)
		}
		latest[key] = obs
	}

	out := make([]model.SourceObservation, 0, len(latest))
	for _, key := range order {
		out = append(out, latest[key])
	}
	return out, nil
}

func normalizeOverride(status string) string {
	switch strings.ToLower(strings.ReplaceAll(status, "-", "_")) {
	case "not_applicable", "notapplicable", "na":
		return model.OverrideNotApplicable
	case "wont_fix", "wontfix":
		return model.OverrideWontFix
	}
	return ""
}
