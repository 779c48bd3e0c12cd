package search

import (
	"strings"

	"github.com/xxxsen/casepedia/internal/index"
	"github.com/xxxsen/casepedia/internal/model"
)

const (
	favorabilityMargin  = 2.0
	minConfidence       = 0.55
	maxConfidence       = 0.95
	confidencePerPoint  = 0.04
	conclusionTailRatio = 0.3
)

// Classifier labels a precedent as favorable, unfavorable or neutral to the
// claimant. It is purely deterministic: identical input always produces the
// identical breakdown.
//
// Tier 1 scans the ordered outcome-phrase dictionary (most specific first,
// first match wins). Tier 2 falls back to a weighted keyword tally where
// occurrences in the final 30% of the text count double, since courts state
// the outcome in the conclusion.
type Classifier struct {
	phrases     []index.OutcomePhrase
	favorable   []string
	unfavorable []string
}

func NewClassifier(domain *index.DomainConfig) *Classifier {
	return &Classifier{
		phrases:     domain.OutcomePhrases,
		favorable:   lowerAll(domain.FavorableKeywords),
		unfavorable: lowerAll(domain.UnfavorableKeywords),
	}
}

func (c *Classifier) Classify(text string) model.FavorabilityBreakdown {
	normalized := strings.ToLower(text)
	if normalized == "" {
		return model.FavorabilityBreakdown{
			Label:      model.FavorabilityNeutral,
			Confidence: minConfidence,
		}
	}

	for _, phrase := range c.phrases {
		needle := strings.ToLower(phrase.Phrase)
		if needle == "" {
			continue
		}
		if strings.Contains(normalized, needle) {
			return model.FavorabilityBreakdown{
				Label:         phrase.Label,
				Confidence:    clamp(phrase.Confidence, minConfidence, maxConfidence),
				MatchedPhrase: phrase.Phrase,
			}
		}
	}

	runes := []rune(normalized)
	cut := int(float64(len(runes)) * (1 - conclusionTailRatio))
	conclusion := string(runes[cut:])

	// Conclusion occurrences count twice in total: once from the full-text
	// tally, once more here.
	favorableScore := tally(normalized, c.favorable) + tally(conclusion, c.favorable)
	unfavorableScore := tally(normalized, c.unfavorable) + tally(conclusion, c.unfavorable)

	gap := favorableScore - unfavorableScore
	label := model.FavorabilityNeutral
	switch {
	case gap > favorabilityMargin:
		label = model.FavorabilityFavorable
	case -gap > favorabilityMargin:
		label = model.FavorabilityUnfavorable
	}
	if gap < 0 {
		gap = -gap
	}
	confidence := clamp(minConfidence+confidencePerPoint*gap, minConfidence, maxConfidence)

	return model.FavorabilityBreakdown{
		Label:            label,
		Confidence:       confidence,
		FavorableScore:   favorableScore,
		UnfavorableScore: unfavorableScore,
	}
}

func tally(text string, keywords []string) float64 {
	var score float64
	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		score += float64(strings.Count(text, keyword))
	}
	return score
}

func lowerAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.ToLower(item))
	}
	return out
}
