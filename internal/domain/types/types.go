// Package types contains common types used across the application
package types

import (
	"sort"

	"github.com/okian/gigrank/internal/domain/reputation"
	"github.com/okian/gigrank/internal/domain/scoring"
)

// ReputationSummary is the read shape of GET /reputation/{user_id}.
type ReputationSummary = reputation.Summary

// Recommendation is one ranked posting or candidate.
type Recommendation struct {
	Rank      int            `json:"rank"`
	ID        string         `json:"id"`
	Score     float64        `json:"score"`
	Breakdown scoring.Result `json:"breakdown"`
}

// less orders by score desc, then id asc so ties are deterministic.
func less(a, b Recommendation) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ID < b.ID
}

// Rank sorts recs best first, truncates to limit when limit > 0 and assigns
// 1-based ranks. The slice is sorted in place.
func Rank(recs []Recommendation, limit int) []Recommendation {
	sort.Slice(recs, func(i, j int) bool { return less(recs[i], recs[j]) })
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}
