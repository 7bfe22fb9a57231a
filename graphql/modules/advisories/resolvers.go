package advisories

import (
	"context"
	"sort"
	"time"

	"github.com/echotrust/advisory-backend/internal/services"
	"github.com/echotrust/advisory-backend/model"
)

func recordToMap(rec *model.AdvisoryStateRecord) map[string]interface{} {
	if rec == nil {
		return nil
	}

	out := map[string]interface{}{
		"history_id":           rec.HistoryID,
		"advisory_id":          rec.AdvisoryID,
		"vuln_id":              rec.VulnID,
		"component":            rec.Component,
		"state":                rec.State,
		"state_type":           rec.StateType,
		"fixed_version":        rec.FixedVersion,
		"confidence":           rec.Confidence,
		"explanation":          rec.Explanation,
		"reason_code":          rec.ReasonCode,
		"decision_rule_id":     rec.RuleID,
		"contributing_sources": rec.ContributingSources,
		"dissenting_sources":   rec.DissentingSources,
		"effective_from":       rec.EffectiveFrom.Format(time.RFC3339),
		"is_current":           rec.IsCurrent,
		"run_id":               rec.RunID,
	}
	if rec.EffectiveTo != nil {
		out["effective_to"] = rec.EffectiveTo.Format(time.RFC3339)
	}
	return out
}

// ResolveCurrent returns the advisory's current state record
func ResolveCurrent(svc *services.AdvisoryService, advisoryID string) (interface{}, error) {
	rec, err := svc.Current(context.Background(), advisoryID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return recordToMap(rec), nil
}

// ResolveHistory returns every version of an advisory, oldest first
func ResolveHistory(svc *services.AdvisoryService, advisoryID string) (interface{}, error) {
	records, err := svc.History(context.Background(), advisoryID)
	if err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, 0, len(records))
	for i := range records {
		out = append(out, recordToMap(&records[i]))
	}
	return out, nil
}

// ResolveAtTime returns the advisory's state as of a point in time
func ResolveAtTime(svc *services.AdvisoryService, advisoryID, timestamp string) (interface{}, error) {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, err
	}

	rec, err := svc.AtTime(context.Background(), advisoryID, t)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return recordToMap(rec), nil
}

// ResolveStateCounts tallies current records per state, sorted by state name
func ResolveStateCounts(svc *services.AdvisoryService) (interface{}, error) {
	counts, err := svc.StateCounts(context.Background())
	if err != nil {
		return nil, err
	}

	states := make([]string, 0, len(counts))
	for state := range counts {
		states = append(states, state)
	}
	sort.Strings(states)

	out := make([]map[string]interface{}, 0, len(states))
	for _, state := range states {
		out = append(out, map[string]interface{}{"state": state, "count": counts[state]})
	}
	return out, nil
}

// ResolvePublished returns the downstream projection of current records,
// optionally filtered to one state
func ResolvePublished(svc *services.AdvisoryService, state string) (interface{}, error) {
	published, err := svc.Published(context.Background())
	if err != nil {
		return nil, err
	}

	out := make([]map[string]interface{}, 0, len(published))
	for _, p := range published {
		if state != "" && p.State != state {
			continue
		}
		out = append(out, map[string]interface{}{
			"advisory_id":          p.AdvisoryID,
			"vuln_id":              p.VulnID,
			"component":            p.Component,
			"state":                p.State,
			"fixed_version":        p.FixedVersion,
			"confidence":           p.Confidence,
			"explanation":          p.Explanation,
			"reason_code":          p.ReasonCode,
			"contributing_sources": p.ContributingSources,
			"effective_from":       p.EffectiveFrom.Format(time.RFC3339),
		})
	}
	return out, nil
}
