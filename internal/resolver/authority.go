package resolver

import "github.com/echotrust/advisory-backend/model"

// unknownRank sorts sources the table does not know about below everything
// it does.
const unknownRank = 1 << 16

// AuthorityTable maps source ids to authority ranks. Lower rank wins when
// sources disagree on a scalar. The table is injected configuration, not a
// process-wide singleton, so tests can substitute alternate orderings.
type AuthorityTable map[string]int

// DefaultAuthorityTable returns the production source ordering: analyst
// overrides beat the registry, the registry beats the fix aggregator, and
// the base corpus ranks last.
func DefaultAuthorityTable() AuthorityTable {
	return AuthorityTable{
		model.SourceInternalCSV: 0,
		model.SourceNVD:         1,
		model.SourceOSV:         2,
		model.SourceCorpus:      3,
	}
}

// Rank returns the authority rank for a source id.
func (t AuthorityTable) Rank(sourceID string) int {
	if rank, ok := t[sourceID]; ok {
		return rank
	}
	return unknownRank
}
