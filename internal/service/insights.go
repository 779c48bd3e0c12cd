package service

import (
	"fmt"
	"sort"

	"github.com/xxxsen/casepedia/internal/model"
)

const (
	highSimilarityFloor = 0.5

	consistencyHighAvg = 0.3
	consistencyLowAvg  = 0.1

	tfidfConfidenceCap     = 0.6
	resultCountBonusCap    = 0.15
	keywordQualityBonusCap = 0.1
	keywordQualityPerWord  = 0.02
	keywordQualityItemCap  = 0.05
	consistencyBonus       = 0.05
	generativeCaseBonus    = 0.15
	generativeSummaryBonus = 0.15
	generativeRecsBonus    = 0.1
)

// buildTFIDFInsights aggregates the ranked result list into the statistics
// block carried by the enhanced and complete phases.
func buildTFIDFInsights(results []model.ScoredPrecedent) model.TFIDFInsights {
	insights := model.TFIDFInsights{
		ResultCount:          len(results),
		CategoryDistribution: map[string]int{},
		Courts:               []string{},
		TopMatchedKeywords:   []model.KeywordCount{},
	}
	if len(results) == 0 {
		return insights
	}

	var sum float64
	insights.MinSimilarity = results[0].BoostedSimilarity
	courts := map[string]struct{}{}
	keywords := map[string]int{}
	for _, r := range results {
		sum += r.BoostedSimilarity
		if r.BoostedSimilarity > insights.MaxSimilarity {
			insights.MaxSimilarity = r.BoostedSimilarity
		}
		if r.BoostedSimilarity < insights.MinSimilarity {
			insights.MinSimilarity = r.BoostedSimilarity
		}
		if r.BoostedSimilarity > highSimilarityFloor {
			insights.HighSimilarityCount++
		}
		if r.Court != "" {
			courts[r.Court] = struct{}{}
		}
		if r.Category != "" {
			insights.CategoryDistribution[r.Category]++
		}
		for _, kw := range r.MatchedKeywords {
			keywords[kw]++
		}
	}
	insights.AvgSimilarity = sum / float64(len(results))

	for court := range courts {
		insights.Courts = append(insights.Courts, court)
	}
	sort.Strings(insights.Courts)

	for kw, count := range keywords {
		insights.TopMatchedKeywords = append(insights.TopMatchedKeywords, model.KeywordCount{Keyword: kw, Count: count})
	}
	sort.Slice(insights.TopMatchedKeywords, func(i, j int) bool {
		a, b := insights.TopMatchedKeywords[i], insights.TopMatchedKeywords[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Keyword < b.Keyword
	})
	if len(insights.TopMatchedKeywords) > 5 {
		insights.TopMatchedKeywords = insights.TopMatchedKeywords[:5]
	}
	return insights
}

// aggregateFavorability builds the per-result-set favorability distribution
// and a human-readable one-liner.
func aggregateFavorability(results []model.ScoredPrecedent) *model.FavorabilityAggregate {
	agg := &model.FavorabilityAggregate{
		Distribution: map[model.Favorability]int{
			model.FavorabilityFavorable:   0,
			model.FavorabilityUnfavorable: 0,
			model.FavorabilityNeutral:     0,
		},
		TotalAnalyzed: len(results),
	}
	if len(results) == 0 {
		agg.Summary = "no similar cases to analyze"
		return agg
	}
	for _, r := range results {
		agg.Distribution[r.Favorability.Label]++
	}
	favorable := agg.Distribution[model.FavorabilityFavorable]
	unfavorable := agg.Distribution[model.FavorabilityUnfavorable]
	agg.FavorableRatio = float64(favorable) / float64(len(results))
	agg.Summary = fmt.Sprintf("%d favorable, %d unfavorable, %d neutral of %d similar cases",
		favorable, unfavorable, agg.Distribution[model.FavorabilityNeutral], len(results))
	return agg
}

// recommendationFor maps the favorable ratio onto one of three fixed
// guidance buckets.
func recommendationFor(agg *model.FavorabilityAggregate) string {
	if agg == nil || agg.TotalAnalyzed == 0 {
		return "no comparable precedent found, consider broadening the query"
	}
	switch {
	case agg.FavorableRatio > 0.6:
		return "precedent trend is positive, an approval-oriented claim looks viable"
	case agg.FavorableRatio < 0.3:
		return "precedent trend is cautionary, expect an uphill claim and gather stronger evidence"
	default:
		return "precedent trend is mixed, the outcome likely turns on case-specific facts"
	}
}

func classifyConsistency(tfidf model.TFIDFInsights, generative *model.GenerativeAnalysis) model.ConsistencyClass {
	hasRanked := tfidf.ResultCount > 0
	hasGenerative := generative != nil && len(generative.Precedents) > 0
	switch {
	case hasRanked && hasGenerative && tfidf.AvgSimilarity > consistencyHighAvg:
		return model.ConsistencyConsistent
	case hasRanked && !hasGenerative && tfidf.AvgSimilarity < consistencyLowAvg:
		return model.ConsistencyConsistentlyLo
	case !hasRanked || generative == nil:
		return model.ConsistencyInsufficient
	default:
		return model.ConsistencyMixed
	}
}

func classifyComplementary(tfidf model.TFIDFInsights, generative *model.GenerativeAnalysis) model.ComplementaryClass {
	hasRanked := tfidf.ResultCount > 0
	hasGenerative := generative != nil && (generative.Summary != "" || len(generative.Precedents) > 0)
	switch {
	case hasRanked && hasGenerative:
		return model.ComplementaryBoth
	case hasRanked:
		return model.ComplementaryTFIDFOnly
	case hasGenerative:
		return model.ComplementaryGenerativeOnly
	default:
		return model.ComplementaryNeither
	}
}

// combinedConfidence scores how much trust the merged answer deserves. The
// ranked part contributes at most 0.6, the generative part at most 0.4.
func combinedConfidence(results []model.ScoredPrecedent, tfidf model.TFIDFInsights, generative *model.GenerativeAnalysis) float64 {
	var score float64

	if tfidf.ResultCount > 0 {
		part := tfidf.AvgSimilarity
		part += min(float64(tfidf.ResultCount)/10.0, resultCountBonusCap)
		part += keywordQualityBonus(results)
		if nonNeutralCount(results) >= 3 {
			part += consistencyBonus
		}
		score += min(part, tfidfConfidenceCap)
	}

	if generative != nil {
		if len(generative.Precedents) > 0 {
			score += generativeCaseBonus
		}
		if generative.Summary != "" {
			score += generativeSummaryBonus
		}
		if len(generative.Recommendations) > 0 {
			score += generativeRecsBonus
		}
	}
	return min(score, 1.0)
}

func keywordQualityBonus(results []model.ScoredPrecedent) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += min(keywordQualityPerWord*float64(len(r.MatchedKeywords)), keywordQualityItemCap)
	}
	return min(sum/float64(len(results)), keywordQualityBonusCap)
}

func nonNeutralCount(results []model.ScoredPrecedent) int {
	count := 0
	for _, r := range results {
		if r.Favorability.Label != model.FavorabilityNeutral {
			count++
		}
	}
	return count
}

// buildCombinedInsights cross-checks the ranked statistics against the
// generative analysis.
func buildCombinedInsights(results []model.ScoredPrecedent, generative *model.GenerativeAnalysis) *model.CombinedInsights {
	tfidf := buildTFIDFInsights(results)
	tfidf.FavorabilitySummary = aggregateFavorability(results).Summary
	insights := &model.CombinedInsights{
		TFIDF:               tfidf,
		GenerativeAvailable: generative != nil,
		Consistency:         classifyConsistency(tfidf, generative),
		ComplementaryValue:  classifyComplementary(tfidf, generative),
		CombinedConfidence:  combinedConfidence(results, tfidf, generative),
	}
	if generative != nil {
		insights.GenerativeSummary = generative.Summary
	}
	return insights
}
