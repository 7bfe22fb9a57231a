package observability

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/echotrust/advisory-backend/internal/history"
	"github.com/echotrust/advisory-backend/model"
)

// Advisories sitting in a non-final state longer than this are flagged.
const stalledAfter = 90 * 24 * time.Hour

var cvePattern = regexp.MustCompile(`^CVE-[0-9]{4}-[0-9]{4,}$`)

// QualityChecker runs post-run consistency checks over the current state
// records. Findings are advisory, never fatal; they land in the run's
// quality notes.
type QualityChecker struct {
	store history.Store
}

func NewQualityChecker(store history.Store) *QualityChecker {
	return &QualityChecker{store: store}
}

// Check inspects every current record and returns one note per finding.
func (q *QualityChecker) Check(ctx context.Context, now time.Time) ([]string, error) {
	records, err := q.store.AllCurrent(ctx)
	if err != nil {
		return nil, err
	}

	var notes []string
	for i := range records {
		notes = append(notes, checkRecord(&records[i], now)...)
	}
	return notes, nil
}

func checkRecord(rec *model.AdvisoryStateRecord, now time.Time) []string {
	var notes []string

	if rec.State == "" {
		notes = append(notes, fmt.Sprintf("%s: current record has empty state", rec.AdvisoryID))
	}

	if rec.State == model.StateFixed && rec.FixedVersion == "" {
		notes = append(notes, fmt.Sprintf("%s: fixed without a fixed version", rec.AdvisoryID))
	}

	if strings.TrimSpace(rec.Explanation) == "" {
		notes = append(notes, fmt.Sprintf("%s: missing explanation", rec.AdvisoryID))
	} else if strings.Contains(rec.Explanation, "{") {
		notes = append(notes, fmt.Sprintf("%s: unrendered placeholder in explanation", rec.AdvisoryID))
	}

	if strings.HasPrefix(rec.VulnID, "CVE-") && !cvePattern.MatchString(rec.VulnID) {
		notes = append(notes, fmt.Sprintf("%s: malformed CVE identifier %q", rec.AdvisoryID, rec.VulnID))
	}

	if rec.StateType == model.StateTypeNonFinal && now.Sub(rec.EffectiveFrom) > stalledAfter {
		notes = append(notes, fmt.Sprintf("%s: stalled in %s since %s",
			rec.AdvisoryID, rec.State, rec.EffectiveFrom.Format("2006-01-02")))
	}

	return notes
}
