package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/osv-scanner/pkg/models"
	"github.com/google/uuid"

	"github.com/echotrust/advisory-backend/model"
	"github.com/echotrust/advisory-backend/util"
)

// OSVAdapter reads a dump of OSV vulnerability entries and emits one
// observation per (vulnerability, affected package) pair. The component is
// the standardized base PURL so it joins with every other source that knows
// the same package under a different spelling.
type OSVAdapter struct {
	Path string
	Now  func() time.Time
}

func NewOSVAdapter(path string) *OSVAdapter {
	return &OSVAdapter{Path: path, Now: time.Now}
}

func (a *OSVAdapter) SourceID() string {
	return model.SourceOSV
}

func (a *OSVAdapter) Fetch(ctx context.Context) ([]model.SourceObservation, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, fmt.Errorf("reading osv dump: %w", err)
	}

	var vulns []models.Vulnerability
	if err := json.Unmarshal(data, &vulns); err != nil {
		return nil, fmt.Errorf("parsing osv dump: %w", err)
	}

	now := a.Now()
	var out []model.SourceObservation
	seen := make(map[string]bool)

	for i := range vulns {
		vuln := &vulns[i]
		if vuln.ID == "" || !vuln.Withdrawn.IsZero() {
			continue
		}

		modified := vuln.Modified
		raw, _ := json.Marshal(vuln)

		for _, affected := range vuln.Affected {
			component := componentFor(affected)
			if component == "" {
				continue
			}

			key := component + ":" + vuln.ID
			if seen[key] {
				continue
			}
			seen[key] = true

			obs := model.SourceObservation{
				ObservationID: uuid.New().String(),
				SourceID:      model.SourceOSV,
				VulnID:        vuln.ID,
				Component:     component,
				ObservedAt:    now,
				RawPayload:    raw,
			}
			if !modified.IsZero() {
				ts := modified
				obs.SourceUpdatedAt = &ts
			}

			ecosystem := string(affected.Package.Ecosystem)
			if fixed := fixedVersionFor(affected, ecosystem); fixed != "" {
				available := true
				obs.FixAvailable = &available
				obs.FixedVersion = fixed
			}

			out = append(out, obs)
		}
	}

	return out, nil
}

func componentFor(affected models.Affected) string {
	if affected.Package.Purl != "" {
		if base, err := util.GetStandardBasePURL(affected.Package.Purl); err == nil {
			return base
		}
	}
	if affected.Package.Name != "" {
		return util.GetBasePURLFromComponents(string(affected.Package.Ecosystem), "", affected.Package.Name)
	}
	return ""
}

// fixedVersionFor returns the first fixed version in the affected ranges
// that is valid under the package's ecosystem versioning scheme.
func fixedVersionFor(affected models.Affected, ecosystem string) string {
	for _, vrange := range affected.Ranges {
		for _, event := range vrange.Events {
			if event.Fixed == "" {
				continue
			}
			if util.IsValidVersion(ecosystem, event.Fixed) {
				return event.Fixed
			}
		}
	}
	return ""
}
