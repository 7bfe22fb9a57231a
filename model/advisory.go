package model

// Confidence levels for a resolved advisory.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Override statuses carried by the internal override source.
const (
	OverrideNotApplicable = "not_applicable"
	OverrideWontFix       = "wont_fix"
)

// RejectionRejected is the registry rejection status that marks an advisory
// as withdrawn. Absence of a rejection signal is not a rejection.
const RejectionRejected = "rejected"

// EnrichedAdvisory is the single reconciled record the conflict resolver
// produces for one advisory identity. Every field is derived only from
// observations sharing that identity.
type EnrichedAdvisory struct {
	AdvisoryID string `json:"advisory_id"`
	VulnID     string `json:"vuln_id"`
	Component  string `json:"component,omitempty"`

	FixAvailable   bool     `json:"fix_available"`
	FixedVersion   string   `json:"fixed_version,omitempty"`
	IsRejected     bool     `json:"is_rejected"`
	RejectionStatus string  `json:"rejection_status,omitempty"`
	OverrideStatus string   `json:"override_status,omitempty"`
	OverrideReason string   `json:"override_reason,omitempty"`
	SeverityScore  *float64 `json:"severity_score,omitempty"`
	HasSignal      bool     `json:"has_signal"`

	Confidence string `json:"confidence"`

	// ContributingSources is ordered by authority rank, highest first.
	ContributingSources []string `json:"contributing_sources"`
	// DissentingSources disagreed with a resolved value and are kept for audit.
	DissentingSources []string `json:"dissenting_sources"`
	SourceCount       int      `json:"source_count"`
}
