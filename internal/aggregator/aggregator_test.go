package aggregator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echotrust/advisory-backend/model"
)

func obs(source, vulnID, component string) model.SourceObservation {
	return model.SourceObservation{
		SourceID:   source,
		VulnID:     vulnID,
		Component:  component,
		ObservedAt: time.Now(),
	}
}

func TestGroupObservationsJoinsAcrossSources(t *testing.T) {
	res := GroupObservations([]model.SourceObservation{
		obs(model.SourceOSV, "CVE-2024-1111", "pkg:npm/lodash@4.17.20"),
		obs(model.SourceCorpus, "cve-2024-1111", "pkg:npm/lodash"),
		obs(model.SourceNVD, "CVE-2024-1111", ""),
	})

	assert.Equal(t, 0, res.MalformedDropped)
	// The purl spellings collapse to one identity; the component-less
	// registry record keys separately on the bare CVE.
	require.Len(t, res.Groups, 2)

	g, ok := res.Groups["pkg:npm/lodash:CVE-2024-1111"]
	require.True(t, ok)
	assert.Len(t, g.Observations, 2)
	assert.Equal(t, "CVE-2024-1111", g.VulnID)
	assert.Equal(t, "pkg:npm/lodash", g.Component)
	assert.Equal(t, []string{model.SourceCorpus, model.SourceOSV}, g.Sources())

	bare, ok := res.Groups["CVE-2024-1111"]
	require.True(t, ok)
	assert.Len(t, bare.Observations, 1)
	assert.Empty(t, bare.Component)
}

func TestGroupObservationsDropsMalformed(t *testing.T) {
	res := GroupObservations([]model.SourceObservation{
		obs(model.SourceOSV, "", "pkg:npm/lodash"),
		obs(model.SourceCorpus, "   ", ""),
		obs(model.SourceNVD, "CVE-2024-2222", ""),
	})

	assert.Equal(t, 2, res.MalformedDropped)
	assert.Len(t, res.Groups, 1)
}

func TestGroupObservationsDeterministic(t *testing.T) {
	input := []model.SourceObservation{
		obs(model.SourceOSV, "CVE-2024-3333", "pkg:pypi/flask"),
		obs(model.SourceNVD, "CVE-2024-3333", ""),
	}

	a := GroupObservations(input)
	b := GroupObservations(input)

	require.Equal(t, len(a.Groups), len(b.Groups))
	for id, g := range a.Groups {
		other, ok := b.Groups[id]
		require.True(t, ok)
		assert.Equal(t, g.Observations, other.Observations)
	}
}
