package search

import (
	"fmt"

	"github.com/xxxsen/casepedia/internal/model"
)

const (
	baseThreshold     = 0.1
	minThreshold      = 0.05
	maxThreshold      = 0.8
	fallbackThreshold = 0.05
)

// ThresholdCalculator derives a per-query relevance threshold from the query
// profile and the caller's accuracy preference. Every adjustment is recorded
// with a reason so the decision can be audited.
type ThresholdCalculator struct{}

func NewThresholdCalculator() *ThresholdCalculator {
	return &ThresholdCalculator{}
}

func (c *ThresholdCalculator) Compute(profile model.QueryProfile, accuracy model.AccuracyLevel) model.ThresholdDecision {
	adjustments := map[string]float64{}
	reasoning := map[string]string{}

	switch {
	case profile.TokenCount <= 3:
		adjustments["length"] = -0.05
		reasoning["length"] = fmt.Sprintf("short query (%d tokens), relaxing threshold", profile.TokenCount)
	case profile.TokenCount >= 10:
		adjustments["length"] = 0.15
		reasoning["length"] = fmt.Sprintf("detailed query (%d tokens), raising threshold", profile.TokenCount)
	default:
		adjustments["length"] = 0
		reasoning["length"] = fmt.Sprintf("moderate query length (%d tokens)", profile.TokenCount)
	}

	switch {
	case profile.DomainRatio > 0.3:
		adjustments["domain"] = 0.1
		reasoning["domain"] = fmt.Sprintf("high domain keyword ratio (%.0f%%)", profile.DomainRatio*100)
	case profile.DomainRatio > 0.1:
		adjustments["domain"] = 0.05
		reasoning["domain"] = fmt.Sprintf("adequate domain keyword ratio (%.0f%%)", profile.DomainRatio*100)
	default:
		adjustments["domain"] = -0.05
		reasoning["domain"] = fmt.Sprintf("low domain keyword ratio (%.0f%%)", profile.DomainRatio*100)
	}

	switch accuracy {
	case model.AccuracyHigh:
		adjustments["preference"] = 0.2
		reasoning["preference"] = "high accuracy preferred"
	case model.AccuracyLow:
		adjustments["preference"] = -0.15
		reasoning["preference"] = "recall preferred over precision"
	default:
		adjustments["preference"] = 0
		reasoning["preference"] = "standard accuracy"
	}

	if profile.HasSpecificTerms {
		adjustments["distribution"] = 0.05
		reasoning["distribution"] = "specific incident terms should concentrate results"
	} else {
		adjustments["distribution"] = -0.05
		reasoning["distribution"] = "generic terms, results likely to spread"
	}

	total := 0.0
	for _, v := range adjustments {
		total += v
	}
	final := clamp(baseThreshold+total, minThreshold, maxThreshold)
	reasoning["summary"] = fmt.Sprintf("base %.2f adjusted to %.3f", baseThreshold, final)

	return model.ThresholdDecision{
		BaseThreshold:  baseThreshold,
		Adjustments:    adjustments,
		FinalThreshold: final,
		Reasoning:      reasoning,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
