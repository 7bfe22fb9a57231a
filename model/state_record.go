package model

import "time"

// AdvisoryStateRecord is one SCD Type 2 version of an advisory's lifecycle
// state. Records are append-only: once written they are never mutated except
// to set EffectiveTo/IsCurrent=false when a newer version supersedes them,
// and they are never deleted.
type AdvisoryStateRecord struct {
	Key       string `json:"_key,omitempty"`
	HistoryID string `json:"history_id"`

	AdvisoryID string `json:"advisory_id"`
	VulnID     string `json:"vuln_id"`
	Component  string `json:"component,omitempty"`

	State        string                 `json:"state"`
	StateType    string                 `json:"state_type"`
	FixedVersion string                 `json:"fixed_version,omitempty"`
	Confidence   string                 `json:"confidence"`
	Explanation  string                 `json:"explanation"`
	ReasonCode   string                 `json:"reason_code"`
	Evidence     map[string]interface{} `json:"evidence"`
	RuleID       string                 `json:"decision_rule_id"`

	ContributingSources []string `json:"contributing_sources"`
	DissentingSources   []string `json:"dissenting_sources"`

	// Parsed fixed version components, indexed for version-aware queries.
	FixedVersionMajor *int `json:"fixed_version_major,omitempty"`
	FixedVersionMinor *int `json:"fixed_version_minor,omitempty"`
	FixedVersionPatch *int `json:"fixed_version_patch,omitempty"`

	EffectiveFrom time.Time  `json:"effective_from"`
	EffectiveTo   *time.Time `json:"effective_to"`
	IsCurrent     bool       `json:"is_current"`

	RunID     string    `json:"run_id"`
	ObjType   string    `json:"objtype"` // "AdvisoryStateRecord"
	CreatedAt time.Time `json:"created_at"`
}

// CoversAt reports whether this version was the advisory's state at time t.
func (r *AdvisoryStateRecord) CoversAt(t time.Time) bool {
	if t.Before(r.EffectiveFrom) {
		return false
	}
	return r.EffectiveTo == nil || t.Before(*r.EffectiveTo)
}
