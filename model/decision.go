package model

// Advisory lifecycle states.
const (
	StateFixed              = "fixed"
	StateNotApplicable      = "not_applicable"
	StateWontFix            = "wont_fix"
	StatePendingUpstream    = "pending_upstream"
	StateUnderInvestigation = "under_investigation"
	StateUnknown            = "unknown" // implicit initial state, never persisted
)

// State type classification.
const (
	StateTypeFinal    = "final"
	StateTypeNonFinal = "non_final"
)

// Reason codes emitted by the decision rule chain.
const (
	ReasonCSVOverride      = "CSV_OVERRIDE"
	ReasonRegistryRejected = "REGISTRY_REJECTED"
	ReasonUpstreamFix      = "UPSTREAM_FIX"
	ReasonNewItem          = "NEW_ITEM"
	ReasonAwaitingFix      = "AWAITING_FIX"
)

// IsFinalState reports whether a state is terminal. Transitions out of a
// final state back into a non-final one are regressions and get flagged.
func IsFinalState(state string) bool {
	switch state {
	case StateFixed, StateNotApplicable, StateWontFix:
		return true
	}
	return false
}

// Decision is the immutable outcome of evaluating the rule chain against
// one enriched advisory.
type Decision struct {
	State        string                 `json:"state"`
	StateType    string                 `json:"state_type"`
	FixedVersion string                 `json:"fixed_version,omitempty"`
	Confidence   string                 `json:"confidence"`
	ReasonCode   string                 `json:"reason_code"`
	Explanation  string                 `json:"explanation"`
	Evidence     map[string]interface{} `json:"evidence"`
	RuleID       string                 `json:"decision_rule_id"`

	ContributingSources []string `json:"contributing_sources"`
	DissentingSources   []string `json:"dissenting_sources"`
}
