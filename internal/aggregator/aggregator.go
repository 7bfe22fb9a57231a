// Package aggregator groups normalized source observations by canonical
// advisory identity. It performs no field merging; reconciling conflicting
// values is the resolver's job.
package aggregator

import (
	"sort"

	"github.com/echotrust/advisory-backend/internal/identity"
	"github.com/echotrust/advisory-backend/model"
)

// Group is one advisory identity and every observation that referenced it.
type Group struct {
	AdvisoryID string
	VulnID     string
	Component  string
	Observations []model.SourceObservation
}

// Sources returns the distinct source ids present in the group, sorted
// lexically. Authority ordering is applied later by the resolver.
func (g *Group) Sources() []string {
	seen := make(map[string]bool, len(g.Observations))
	var out []string
	for _, obs := range g.Observations {
		if !seen[obs.SourceID] {
			seen[obs.SourceID] = true
			out = append(out, obs.SourceID)
		}
	}
	sort.Strings(out)
	return out
}

// Result holds the grouped observations for one run.
type Result struct {
	Groups           map[string]*Group
	MalformedDropped int
}

// GroupObservations computes the canonical identity for every observation
// and buckets them. Observations without a usable identity are dropped and
// counted; they never reach the resolver. Pure function, no side effects.
func GroupObservations(observations []model.SourceObservation) Result {
	res := Result{Groups: make(map[string]*Group)}

	for _, obs := range observations {
		id, err := identity.Canonical(obs.Component, obs.VulnID)
		if err != nil {
			res.MalformedDropped++
			continue
		}

		g, ok := res.Groups[id]
		if !ok {
			g = &Group{
				AdvisoryID: id,
				VulnID:     normalizedVulnID(obs.VulnID),
				Component:  identity.NormalizeComponent(obs.Component),
			}
			res.Groups[id] = g
		}
		g.Observations = append(g.Observations, obs)
	}

	return res
}

func normalizedVulnID(vulnID string) string {
	// Canonical already validated it; re-derive the normalized form so the
	// group carries exactly what the identity key was built from.
	id, _ := identity.Canonical("", vulnID)
	return id
}
