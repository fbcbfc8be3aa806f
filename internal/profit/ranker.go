package profit

import (
	"sort"

	"github.com/millelog/new-world-profit-calculator/internal/model"
)

// Rank orders records by score descending, breaking ties on availability
// descending and then item id ascending so repeated passes over the same
// data produce identical orderings. The result is truncated to topN; a
// non-positive topN keeps everything.
func Rank(recs []model.ProfitabilityRecord, topN int) []model.ProfitabilityRecord {
	ranked := make([]model.ProfitabilityRecord, len(recs))
	copy(ranked, recs)

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Availability != ranked[j].Availability {
			return ranked[i].Availability > ranked[j].Availability
		}
		return ranked[i].ItemID < ranked[j].ItemID
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
