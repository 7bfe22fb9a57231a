// Package model defines the data structures shared across the advisory pipeline.
package model

import (
	"encoding/json"
	"time"
)

// Known source identifiers, ordered by default authority (see resolver package).
const (
	SourceInternalCSV = "internal_csv" // analyst-maintained overrides
	SourceNVD         = "nvd"          // authoritative vulnerability registry
	SourceOSV         = "osv"          // ecosystem fix aggregator
	SourceCorpus      = "corpus"       // base advisory corpus, pre-enrichment
)

// SourceObservation is one normalized signal from one provider about one
// advisory. Adapters produce exactly one observation per (source, advisory)
// pair per run; the pipeline never merges duplicates from the same source.
type SourceObservation struct {
	ObservationID string `json:"observation_id"`
	SourceID      string `json:"source_id"`

	// Advisory identity inputs. Component may be empty for sources that
	// only know about the vulnerability (e.g. a CVE-centric registry).
	VulnID    string `json:"vuln_id"`
	Component string `json:"component,omitempty"`

	ObservedAt      time.Time  `json:"observed_at"`
	SourceUpdatedAt *time.Time `json:"source_updated_at,omitempty"`

	// Normalized signals. All optional; a source provides what it has.
	OverrideStatus  string   `json:"override_status,omitempty"`
	OverrideReason  string   `json:"override_reason,omitempty"`
	RejectionStatus string   `json:"rejection_status,omitempty"`
	FixAvailable    *bool    `json:"fix_available,omitempty"`
	FixedVersion    string   `json:"fixed_version,omitempty"`
	SeverityScore   *float64 `json:"severity_score,omitempty"`
	Notes           string   `json:"notes,omitempty"`

	// Preserved for audit, never interpreted by the pipeline core.
	RawPayload json.RawMessage `json:"raw_payload,omitempty"`
}

// ObservationLogEntry wraps an observation for the immutable audit log.
type ObservationLogEntry struct {
	Key     string `json:"_key,omitempty"`
	RunID   string `json:"run_id"`
	ObjType string `json:"objtype"` // "ObservationLogEntry"
	SourceObservation
	LoggedAt time.Time `json:"logged_at"`
}

// SourceHealth reports the outcome of one adapter fetch.
type SourceHealth struct {
	SourceID       string     `json:"source_id"`
	Healthy        bool       `json:"healthy"`
	LastFetch      *time.Time `json:"last_fetch,omitempty"`
	RecordsFetched int        `json:"records_fetched"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}
