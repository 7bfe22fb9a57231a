package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotrust/advisory-backend/model"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine, err := NewEngine(DefaultRules(), nil)
	require.NoError(t, err)
	return engine
}

func floatPtr(f float64) *float64 { return &f }

func TestOverrideBeatsRejectionAndFix(t *testing.T) {
	engine := newTestEngine(t)

	// All three top rules match; the analyst override holds the lowest
	// priority number and must win.
	d, err := engine.Decide(model.EnrichedAdvisory{
		AdvisoryID:     "pkg:npm/lodash:CVE-2024-1111",
		OverrideStatus: model.OverrideNotApplicable,
		OverrideReason: "vendored copy removed",
		IsRejected:     true,
		FixAvailable:   true,
		FixedVersion:   "4.17.21",
		HasSignal:      true,
		Confidence:     model.ConfidenceHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StateNotApplicable, d.State)
	assert.Equal(t, model.ReasonCSVOverride, d.ReasonCode)
	assert.Equal(t, "R0", d.RuleID)
	assert.Equal(t, model.StateTypeFinal, d.StateType)
}

func TestRejectionBeatsFix(t *testing.T) {
	engine := newTestEngine(t)

	d, err := engine.Decide(model.EnrichedAdvisory{
		AdvisoryID:   "CVE-2024-2222",
		IsRejected:   true,
		FixAvailable: true,
		FixedVersion: "2.0.0",
		HasSignal:    true,
		Confidence:   model.ConfidenceHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StateNotApplicable, d.State)
	assert.Equal(t, model.ReasonRegistryRejected, d.ReasonCode)
	assert.Empty(t, d.FixedVersion, "rejected advisories do not carry a fixed version")
}

func TestFixWithVersionDecidesFixed(t *testing.T) {
	engine := newTestEngine(t)

	d, err := engine.Decide(model.EnrichedAdvisory{
		AdvisoryID:   "pkg:npm/lodash:CVE-2024-3333",
		FixAvailable: true,
		FixedVersion: "4.17.21",
		HasSignal:    true,
		Confidence:   model.ConfidenceHigh,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StateFixed, d.State)
	assert.Equal(t, model.ReasonUpstreamFix, d.ReasonCode)
	assert.Equal(t, "4.17.21", d.FixedVersion)
	assert.Contains(t, d.Explanation, "4.17.21")
}

func TestFixWithoutVersionFallsThrough(t *testing.T) {
	engine := newTestEngine(t)

	d, err := engine.Decide(model.EnrichedAdvisory{
		AdvisoryID:   "CVE-2024-4444",
		FixAvailable: true,
		HasSignal:    true,
		Confidence:   model.ConfidenceLow,
	})
	require.NoError(t, err)

	// A fix claim with no version is not enough for the fixed state.
	assert.Equal(t, model.StatePendingUpstream, d.State)
	assert.Equal(t, model.ReasonAwaitingFix, d.ReasonCode)
}

func TestNoSignalIsUnderInvestigation(t *testing.T) {
	engine := newTestEngine(t)

	d, err := engine.Decide(model.EnrichedAdvisory{
		AdvisoryID: "CVE-2024-5555",
		Confidence: model.ConfidenceLow,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StateUnderInvestigation, d.State)
	assert.Equal(t, model.ReasonNewItem, d.ReasonCode)
	assert.Equal(t, model.StateTypeNonFinal, d.StateType)
}

func TestSeverityOnlyHitsDefault(t *testing.T) {
	engine := newTestEngine(t)

	d, err := engine.Decide(model.EnrichedAdvisory{
		AdvisoryID:    "CVE-2024-6666",
		SeverityScore: floatPtr(9.8),
		HasSignal:     true,
		Confidence:    model.ConfidenceMedium,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatePendingUpstream, d.State)
	assert.Equal(t, model.ReasonAwaitingFix, d.ReasonCode)
}

func TestDecideIsDeterministic(t *testing.T) {
	engine := newTestEngine(t)
	adv := model.EnrichedAdvisory{
		AdvisoryID:          "pkg:pypi/flask:CVE-2024-7777",
		FixAvailable:        true,
		FixedVersion:        "3.0.1",
		HasSignal:           true,
		Confidence:          model.ConfidenceHigh,
		ContributingSources: []string{"nvd", "osv"},
	}

	first, err := engine.Decide(adv)
	require.NoError(t, err)
	second, err := engine.Decide(adv)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestEvidenceCarriesAuditFields(t *testing.T) {
	engine := newTestEngine(t)

	d, err := engine.Decide(model.EnrichedAdvisory{
		AdvisoryID:          "CVE-2024-8888",
		FixAvailable:        true,
		FixedVersion:        "1.2.3",
		HasSignal:           true,
		Confidence:          model.ConfidenceHigh,
		ContributingSources: []string{"osv"},
	})
	require.NoError(t, err)

	assert.Equal(t, "R2", d.Evidence["applied_rule"])
	assert.Equal(t, model.ConfidenceHigh, d.Evidence["confidence"])
	assert.Equal(t, []string{"osv"}, d.Evidence["contributing_sources"])
	assert.Equal(t, "1.2.3", d.Evidence["fixed_version"])
}

func TestEngineRejectsEmptyChain(t *testing.T) {
	_, err := NewEngine(nil, nil)
	assert.Error(t, err)
}

func TestEngineRequiresDefaultRule(t *testing.T) {
	rules := ApplyOverrides(DefaultRules(), []Override{{ID: "R6", Disabled: true}})
	_, err := NewEngine(rules, nil)
	assert.Error(t, err, "disabling the default rule must fail at construction, not per advisory")
}

func TestEngineRequiresDefaultLast(t *testing.T) {
	p := -1
	rules := ApplyOverrides(DefaultRules(), []Override{{ID: "R6", Priority: &p}})
	_, err := NewEngine(rules, nil)
	assert.Error(t, err)
}

func TestApplyOverridesDisableAndReprioritize(t *testing.T) {
	p := 10
	rules := ApplyOverrides(DefaultRules(), []Override{
		{ID: "R1", Disabled: true},
		{ID: "R5", Priority: &p},
		{ID: "unknown-rule", Disabled: true},
	})

	assert.Len(t, rules, len(DefaultRules())-1)
	for _, r := range rules {
		assert.NotEqual(t, "R1", r.ID)
		if r.ID == "R5" {
			assert.Equal(t, 10, r.Priority)
		}
	}
}
