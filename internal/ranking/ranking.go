// Package ranking filters scored listings by threshold and orders them for
// the report.
package ranking

import (
	"sort"

	"hybridhunter/internal/config"
	"hybridhunter/internal/types"
)

// Criteria controls which scored listings are kept
type Criteria struct {
	MinScore  int
	MaxCount  int  // <= 0 means no cap
	Inclusive bool // keep scores equal to MinScore
}

// CriteriaFromConfig reads the selection settings from cfg
func CriteriaFromConfig(cfg *config.Config) Criteria {
	return Criteria{
		MinScore:  cfg.Search.MinScore,
		MaxCount:  cfg.Search.MaxResults,
		Inclusive: cfg.Search.InclusiveThreshold,
	}
}

func (c Criteria) passes(score int) bool {
	if c.Inclusive {
		return score >= c.MinScore
	}
	return score > c.MinScore
}

// Select keeps listings above the threshold, sorted by score descending.
// Equal scores stay in discovery order. The input slice is not modified.
func Select(scored []types.ScoredListing, c Criteria) []types.ScoredListing {
	kept := make([]types.ScoredListing, 0, len(scored))
	for _, s := range scored {
		if c.passes(s.MatchScore) {
			kept = append(kept, s)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].MatchScore > kept[j].MatchScore
	})

	if c.MaxCount > 0 && len(kept) > c.MaxCount {
		kept = kept[:c.MaxCount]
	}
	return kept
}
