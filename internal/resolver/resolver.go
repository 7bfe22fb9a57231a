// Package resolver reduces a group of per-source observations into one
// enriched advisory, applying the source authority ordering and the
// field-specific reduction rules.
package resolver

import (
	"sort"

	"github.com/echotrust/advisory-backend/internal/aggregator"
	"github.com/echotrust/advisory-backend/model"
)

// Resolver reconciles conflicting per-source signals for one advisory
// identity at a time.
type Resolver struct {
	authority AuthorityTable

	// registryRank identifies the source trusted for rejection status and
	// severity. Rank 1 (the vulnerability registry) in the default table.
	registryRank int
}

// New creates a Resolver with the given authority ordering. A nil table
// falls back to the default ordering.
func New(authority AuthorityTable) *Resolver {
	if authority == nil {
		authority = DefaultAuthorityTable()
	}
	return &Resolver{authority: authority, registryRank: 1}
}

// Resolve reduces one identity's observations into a single enriched
// advisory. Pure function: identical input groups produce identical output.
func (r *Resolver) Resolve(g *aggregator.Group) model.EnrichedAdvisory {
	obs := r.sortByAuthority(g.Observations)

	adv := model.EnrichedAdvisory{
		AdvisoryID:  g.AdvisoryID,
		VulnID:      g.VulnID,
		Component:   g.Component,
		SourceCount: len(sourceSet(obs)),
	}

	r.resolveOverride(obs, &adv)
	r.resolveRejection(obs, &adv)
	r.resolveFix(obs, &adv)
	r.resolveSeverity(obs, &adv)

	adv.HasSignal = adv.OverrideStatus != "" ||
		adv.IsRejected ||
		adv.FixAvailable ||
		adv.FixedVersion != "" ||
		adv.SeverityScore != nil

	adv.Confidence = r.confidence(&adv)
	adv.ContributingSources = r.contributingSources(obs)
	adv.DissentingSources = r.dissentingSources(obs, &adv)

	return adv
}

// sortByAuthority orders observations by rank ascending, then latest
// source_updated_at, then lexical source id. The timestamp tie-break for
// same-rank sources is assumed policy, not confirmed upstream; the lexical
// fallback only exists to keep resolution deterministic.
func (r *Resolver) sortByAuthority(in []model.SourceObservation) []model.SourceObservation {
	obs := make([]model.SourceObservation, len(in))
	copy(obs, in)

	sort.SliceStable(obs, func(i, j int) bool {
		ri, rj := r.authority.Rank(obs[i].SourceID), r.authority.Rank(obs[j].SourceID)
		if ri != rj {
			return ri < rj
		}
		ti, tj := obs[i].SourceUpdatedAt, obs[j].SourceUpdatedAt
		switch {
		case ti != nil && tj != nil && !ti.Equal(*tj):
			return ti.After(*tj)
		case ti != nil && tj == nil:
			return true
		case ti == nil && tj != nil:
			return false
		}
		return obs[i].SourceID < obs[j].SourceID
	})

	return obs
}

// resolveOverride takes the override from the highest-authority source that
// set one.
func (r *Resolver) resolveOverride(obs []model.SourceObservation, adv *model.EnrichedAdvisory) {
	for _, o := range obs {
		if o.OverrideStatus != "" {
			adv.OverrideStatus = o.OverrideStatus
			adv.OverrideReason = o.OverrideReason
			return
		}
	}
}

// resolveRejection trusts only the registry-authority source for rejection.
// Absence of a rejection signal is not a rejection.
func (r *Resolver) resolveRejection(obs []model.SourceObservation, adv *model.EnrichedAdvisory) {
	for _, o := range obs {
		if r.authority.Rank(o.SourceID) != r.registryRank {
			continue
		}
		if o.RejectionStatus == model.RejectionRejected {
			adv.IsRejected = true
			adv.RejectionStatus = o.RejectionStatus
			return
		}
		if adv.RejectionStatus == "" {
			adv.RejectionStatus = o.RejectionStatus
		}
	}
}

// resolveFix applies a logical OR across boolean fix signals: any source
// claiming a fix exists is sufficient evidence one exists, so a silent
// higher-authority source never cancels a positive lower-authority signal.
// The fixed version, being a scalar, does follow authority order among the
// sources that supplied a fix signal, falling back down the ordering until
// a non-empty version is found.
func (r *Resolver) resolveFix(obs []model.SourceObservation, adv *model.EnrichedAdvisory) {
	for _, o := range obs {
		if o.FixAvailable != nil && *o.FixAvailable {
			adv.FixAvailable = true
			break
		}
	}

	for _, o := range obs {
		if !hasFixSignal(o) {
			continue
		}
		if o.FixedVersion != "" {
			adv.FixedVersion = o.FixedVersion
			return
		}
	}
}

func hasFixSignal(o model.SourceObservation) bool {
	if o.FixAvailable != nil && *o.FixAvailable {
		return true
	}
	return o.FixedVersion != ""
}

// resolveSeverity prefers the registry's score, then the first score in
// authority order.
func (r *Resolver) resolveSeverity(obs []model.SourceObservation, adv *model.EnrichedAdvisory) {
	for _, o := range obs {
		if r.authority.Rank(o.SourceID) == r.registryRank && o.SeverityScore != nil {
			adv.SeverityScore = o.SeverityScore
			return
		}
	}
	for _, o := range obs {
		if o.SeverityScore != nil {
			adv.SeverityScore = o.SeverityScore
			return
		}
	}
}

// confidence grades how well-supported the resolved record is. First match
// wins.
func (r *Resolver) confidence(adv *model.EnrichedAdvisory) string {
	switch {
	case adv.OverrideStatus != "",
		adv.FixAvailable && adv.FixedVersion != "",
		adv.IsRejected:
		return model.ConfidenceHigh
	case adv.SeverityScore != nil:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// contributingSources lists distinct sources ordered by authority rank.
func (r *Resolver) contributingSources(obs []model.SourceObservation) []string {
	seen := make(map[string]bool, len(obs))
	var out []string
	for _, o := range obs { // obs is already authority-sorted
		if !seen[o.SourceID] {
			seen[o.SourceID] = true
			out = append(out, o.SourceID)
		}
	}
	return out
}

// dissentingSources records sources whose boolean or status signal disagrees
// with the resolved value, for audit.
func (r *Resolver) dissentingSources(obs []model.SourceObservation, adv *model.EnrichedAdvisory) []string {
	seen := make(map[string]bool)
	var out []string
	dissent := func(sourceID string) {
		if !seen[sourceID] {
			seen[sourceID] = true
			out = append(out, sourceID)
		}
	}

	for _, o := range obs {
		// Source explicitly denies a fix the resolved record asserts.
		if adv.FixAvailable && o.FixAvailable != nil && !*o.FixAvailable {
			dissent(o.SourceID)
		}
		// Source claims a rejection the registry did not confirm.
		if !adv.IsRejected && o.RejectionStatus == model.RejectionRejected {
			dissent(o.SourceID)
		}
		// Source carries an override that lost to a higher authority.
		if adv.OverrideStatus != "" && o.OverrideStatus != "" && o.OverrideStatus != adv.OverrideStatus {
			dissent(o.SourceID)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func sourceSet(obs []model.SourceObservation) map[string]bool {
	set := make(map[string]bool, len(obs))
	for _, o := range obs {
		set[o.SourceID] = true
	}
	return set
}
