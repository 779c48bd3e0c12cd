package search

import (
	"sort"

	"github.com/xxxsen/casepedia/internal/index"
	"github.com/xxxsen/casepedia/internal/model"
)

// Fallback strategies produce plain similarity hits. These conversions turn
// them into the same ScoredPrecedent shape the ranked engine emits, with the
// fields the fallback cannot compute left at explicit defaults.

func convertBasicHits(idx *index.Index, scores []float64, topK int, category string) []model.ScoredPrecedent {
	if topK <= 0 {
		topK = 10
	}
	candidates := make([]int, 0, len(scores))
	for i, score := range scores {
		if score < basicMinSimilarity {
			continue
		}
		if category != "" && idx.Document(i).Category != category {
			continue
		}
		candidates = append(candidates, i)
	}
	sort.Slice(candidates, func(a, b int) bool {
		i, j := candidates[a], candidates[b]
		if scores[i] != scores[j] {
			return scores[i] > scores[j]
		}
		di, dj := idx.Document(i), idx.Document(j)
		if di.Date != dj.Date {
			return di.Date > dj.Date
		}
		return di.ID < dj.ID
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]model.ScoredPrecedent, 0, len(candidates))
	for rank, docIdx := range candidates {
		doc := idx.Document(docIdx)
		results = append(results, model.ScoredPrecedent{
			CaseID:            doc.ID,
			Title:             doc.Title,
			Summary:           truncateRunes(doc.Body, maxSummaryRunes),
			Court:             doc.Court,
			Date:              doc.Date,
			Category:          doc.Category,
			BaseSimilarity:    scores[docIdx],
			BoostedSimilarity: scores[docIdx],
			MatchedKeywords:   []string{},
			Favorability: model.FavorabilityBreakdown{
				Label:      model.FavorabilityNeutral,
				Confidence: minConfidence,
			},
			Rank: rank + 1,
		})
	}
	return results
}

// basicDecision is the fixed decision attached to fallback results so the
// caller always sees why the usual threshold machinery is absent.
func basicDecision() *model.ThresholdDecision {
	return &model.ThresholdDecision{
		BaseThreshold:  basicMinSimilarity,
		Adjustments:    map[string]float64{},
		FinalThreshold: basicMinSimilarity,
		Reasoning: map[string]string{
			"summary": "fallback strategy, fixed floor threshold",
		},
		FallbackApplied: true,
	}
}
