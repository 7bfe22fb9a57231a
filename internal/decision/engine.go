package decision

import (
	"fmt"
	"sort"
	"strings"

	"github.com/echotrust/advisory-backend/model"
)

// Engine applies a rule chain to enriched advisories. Pure and
// deterministic: the same advisory always produces the same decision,
// regardless of call order or repetition.
type Engine struct {
	rules     []Rule
	explainer *Explainer
}

// NewEngine builds an engine from a rule chain. The chain is sorted by
// priority and must contain exactly one unconditional default rule, so
// that rule exhaustion is impossible by construction. A chain without a
// default is a configuration error, not a per-advisory error.
func NewEngine(rules []Rule, explainer *Explainer) (*Engine, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("decision engine: empty rule chain")
	}
	if explainer == nil {
		explainer = NewExplainer(nil)
	}

	sorted := make([]Rule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority < sorted[j].Priority
	})

	defaults := 0
	for _, r := range sorted {
		if r.Matches == nil {
			defaults++
		}
	}
	if defaults == 0 {
		return nil, fmt.Errorf("decision engine: rule chain has no default rule")
	}
	if sorted[len(sorted)-1].Matches != nil {
		return nil, fmt.Errorf("decision engine: default rule %q is not last in priority order", defaultRuleID(sorted))
	}

	return &Engine{rules: sorted, explainer: explainer}, nil
}

func defaultRuleID(rules []Rule) string {
	for _, r := range rules {
		if r.Matches == nil {
			return r.ID
		}
	}
	return ""
}

// Rules returns the chain in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Decide evaluates the chain in ascending priority order and returns the
// first matching rule's outcome. The returned error can only occur if the
// chain invariant was violated after construction.
func (e *Engine) Decide(adv model.EnrichedAdvisory) (model.Decision, error) {
	for _, rule := range e.rules {
		if rule.Matches != nil && !rule.Matches(adv) {
			continue
		}

		d := model.Decision{
			State:               rule.State,
			StateType:           rule.StateType,
			Confidence:          adv.Confidence,
			ReasonCode:          rule.ReasonCode,
			RuleID:              rule.ID,
			ContributingSources: copyStrings(adv.ContributingSources),
			DissentingSources:   copyStrings(adv.DissentingSources),
		}
		if rule.CarryFixedVersion {
			d.FixedVersion = adv.FixedVersion
		}
		d.Evidence = e.buildEvidence(rule, adv)
		d.Explanation = e.explainer.Render(rule.ReasonCode, e.templateValues(adv, d))
		return d, nil
	}

	return model.Decision{}, fmt.Errorf("decision engine: no rule matched advisory %s", adv.AdvisoryID)
}

// buildEvidence combines the rule's consulted fields with the audit fields
// every decision carries.
func (e *Engine) buildEvidence(rule Rule, adv model.EnrichedAdvisory) map[string]interface{} {
	ev := map[string]interface{}{}
	if rule.Evidence != nil {
		for k, v := range rule.Evidence(adv) {
			ev[k] = v
		}
	}
	ev["contributing_sources"] = copyStrings(adv.ContributingSources)
	ev["confidence"] = adv.Confidence
	ev["applied_rule"] = rule.ID
	return ev
}

// templateValues prepares placeholder values for explanation rendering.
func (e *Engine) templateValues(adv model.EnrichedAdvisory, d model.Decision) map[string]interface{} {
	values := map[string]interface{}{
		"override_status":  adv.OverrideStatus,
		"override_reason":  adv.OverrideReason,
		"rejection_status": adv.RejectionStatus,
		"fixed_version":    d.FixedVersion,
		"confidence":       adv.Confidence,
		"sources":          strings.Join(adv.ContributingSources, ", "),
	}
	if adv.SeverityScore != nil {
		values["severity_score"] = *adv.SeverityScore
	}
	return values
}

func copyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
