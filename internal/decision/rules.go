// Package decision evaluates the priority-ordered rule chain that turns an
// enriched advisory into a lifecycle decision.
package decision

import "github.com/echotrust/advisory-backend/model"

// Rule is one (predicate, outcome) pair in the chain. Rules are data, not
// control flow: the engine evaluates them generically in priority order, so
// new rules insert without touching engine code.
//
// A nil Matches marks the unconditional default rule. Every chain must end
// with one; the engine refuses to start without it.
type Rule struct {
	ID         string
	Priority   int
	ReasonCode string
	State      string
	StateType  string

	// Matches reports whether the rule applies. nil means "always".
	Matches func(adv model.EnrichedAdvisory) bool

	// CarryFixedVersion copies the resolved fixed version onto the decision.
	CarryFixedVersion bool

	// Evidence returns the fields this rule's condition consulted. The
	// engine adds contributing sources and confidence on top.
	Evidence func(adv model.EnrichedAdvisory) map[string]interface{}
}

// DefaultRules returns the production chain in priority order.
//
// Priorities 3 and 4 are reserved for distribution-scoped determinations
// (not_affected / wont_fix from a distro feed) that need data the pipeline
// does not receive yet. New rules take those slots; existing rules are
// never renumbered.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:         "R0",
			Priority:   0,
			ReasonCode: model.ReasonCSVOverride,
			State:      model.StateNotApplicable,
			StateType:  model.StateTypeFinal,
			Matches: func(adv model.EnrichedAdvisory) bool {
				return adv.OverrideStatus == model.OverrideNotApplicable
			},
			Evidence: func(adv model.EnrichedAdvisory) map[string]interface{} {
				return map[string]interface{}{
					"override_status": adv.OverrideStatus,
					"override_reason": adv.OverrideReason,
				}
			},
		},
		{
			ID:         "R1",
			Priority:   1,
			ReasonCode: model.ReasonRegistryRejected,
			State:      model.StateNotApplicable,
			StateType:  model.StateTypeFinal,
			Matches: func(adv model.EnrichedAdvisory) bool {
				return adv.IsRejected
			},
			Evidence: func(adv model.EnrichedAdvisory) map[string]interface{} {
				return map[string]interface{}{
					"is_rejected":      true,
					"rejection_status": adv.RejectionStatus,
				}
			},
		},
		{
			ID:                "R2",
			Priority:          2,
			ReasonCode:        model.ReasonUpstreamFix,
			State:             model.StateFixed,
			StateType:         model.StateTypeFinal,
			CarryFixedVersion: true,
			Matches: func(adv model.EnrichedAdvisory) bool {
				return adv.FixAvailable && adv.FixedVersion != ""
			},
			Evidence: func(adv model.EnrichedAdvisory) map[string]interface{} {
				return map[string]interface{}{
					"fix_available": true,
					"fixed_version": adv.FixedVersion,
				}
			},
		},
		// Priorities 3-4 reserved for distro-scoped rules.
		{
			ID:         "R5",
			Priority:   5,
			ReasonCode: model.ReasonNewItem,
			State:      model.StateUnderInvestigation,
			StateType:  model.StateTypeNonFinal,
			Matches: func(adv model.EnrichedAdvisory) bool {
				return !adv.HasSignal
			},
			Evidence: func(adv model.EnrichedAdvisory) map[string]interface{} {
				return map[string]interface{}{
					"has_signal":   false,
					"source_count": adv.SourceCount,
				}
			},
		},
		{
			ID:         "R6",
			Priority:   6,
			ReasonCode: model.ReasonAwaitingFix,
			State:      model.StatePendingUpstream,
			StateType:  model.StateTypeNonFinal,
			Matches:    nil, // default, always applies
			Evidence: func(adv model.EnrichedAdvisory) map[string]interface{} {
				ev := map[string]interface{}{
					"fix_available": adv.FixAvailable,
					"source_count":  adv.SourceCount,
				}
				if adv.SeverityScore != nil {
					ev["severity_score"] = *adv.SeverityScore
				}
				return ev
			},
		},
	}
}
