package model

type AccuracyLevel string

const (
	AccuracyHigh   AccuracyLevel = "high"
	AccuracyMedium AccuracyLevel = "medium"
	AccuracyLow    AccuracyLevel = "low"
)

// QueryProfile is the per-request analysis of a raw query. Created per
// request and discarded after use.
type QueryProfile struct {
	Raw              string   `json:"raw"`
	Tokens           []string `json:"tokens"`
	TokenCount       int      `json:"token_count"`
	DomainRatio      float64  `json:"domain_ratio"`
	HasLegalTerms    bool     `json:"has_legal_terms"`
	HasSpecificTerms bool     `json:"has_specific_terms"`
	QualityScore     float64  `json:"quality_score"`
}

// ThresholdDecision explains how the per-query relevance threshold was
// derived. Every adjustment carries a human-readable reason.
type ThresholdDecision struct {
	BaseThreshold   float64            `json:"base_threshold"`
	Adjustments     map[string]float64 `json:"adjustments"`
	FinalThreshold  float64            `json:"final_threshold"`
	Reasoning       map[string]string  `json:"reasoning"`
	FallbackApplied bool               `json:"fallback_applied"`
}
