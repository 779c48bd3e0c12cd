package model

import "time"

type SearchPhase string

const (
	PhaseImmediate SearchPhase = "immediate"
	PhaseEnhanced  SearchPhase = "enhanced"
	PhaseComplete  SearchPhase = "complete"
)

// FavorabilityAggregate summarizes the favorability distribution over one
// result set.
type FavorabilityAggregate struct {
	Distribution   map[Favorability]int `json:"distribution"`
	FavorableRatio float64              `json:"favorable_ratio"`
	Summary        string               `json:"summary"`
	TotalAnalyzed  int                  `json:"total_analyzed"`
}

// GenerativeAnalysis is the optional enrichment produced by the external
// generative collaborator.
type GenerativeAnalysis struct {
	Summary         string                `json:"summary"`
	Recommendations []string              `json:"recommendations"`
	Precedents      []GenerativePrecedent `json:"precedents"`
}

type GenerativePrecedent struct {
	Title     string `json:"title"`
	Reference string `json:"reference"`
	Note      string `json:"note"`
}

type ConsistencyClass string

const (
	ConsistencyConsistent     ConsistencyClass = "consistent"
	ConsistencyConsistentlyLo ConsistencyClass = "consistently_low"
	ConsistencyMixed          ConsistencyClass = "mixed"
	ConsistencyInsufficient   ConsistencyClass = "insufficient_data"
)

type ComplementaryClass string

const (
	ComplementaryBoth           ComplementaryClass = "both"
	ComplementaryTFIDFOnly      ComplementaryClass = "tfidf_only"
	ComplementaryGenerativeOnly ComplementaryClass = "generative_only"
	ComplementaryNeither        ComplementaryClass = "neither"
)

type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// TFIDFInsights aggregates statistics over the ranked result list.
type TFIDFInsights struct {
	ResultCount          int            `json:"result_count"`
	AvgSimilarity        float64        `json:"avg_similarity"`
	MaxSimilarity        float64        `json:"max_similarity"`
	MinSimilarity        float64        `json:"min_similarity"`
	HighSimilarityCount  int            `json:"high_similarity_count"`
	Courts               []string       `json:"courts"`
	CategoryDistribution map[string]int `json:"category_distribution"`
	TopMatchedKeywords   []KeywordCount `json:"top_matched_keywords"`
	FavorabilitySummary  string         `json:"favorability_summary"`
}

// CombinedInsights merges the ranked-search statistics with the generative
// analysis into one cross-checked view.
type CombinedInsights struct {
	TFIDF               TFIDFInsights      `json:"tfidf"`
	GenerativeAvailable bool               `json:"generative_available"`
	GenerativeSummary   string             `json:"generative_summary,omitempty"`
	Consistency         ConsistencyClass   `json:"consistency"`
	ComplementaryValue  ComplementaryClass `json:"complementary_value"`
	CombinedConfidence  float64            `json:"combined_confidence"`
}

// StageResponse is one phase of the progressive pipeline. Phases are
// cumulative: enhanced carries everything immediate has, complete carries
// everything enhanced has.
type StageResponse struct {
	Phase          SearchPhase            `json:"phase"`
	Query          string                 `json:"query"`
	Timestamp      time.Time              `json:"timestamp"`
	ElapsedMS      int64                  `json:"elapsed_ms"`
	Results        []ScoredPrecedent      `json:"results"`
	Threshold      *ThresholdDecision     `json:"threshold,omitempty"`
	Favorability   *FavorabilityAggregate `json:"favorability,omitempty"`
	Generative     *GenerativeAnalysis    `json:"generative,omitempty"`
	Insights       *CombinedInsights      `json:"insights,omitempty"`
	Confidence     float64                `json:"confidence"`
	Recommendation string                 `json:"recommendation"`
	CacheHit       bool                   `json:"cache_hit"`
}

// HybridResult is the single-shot answer of the hybrid orchestrator.
type HybridResult struct {
	Query               string              `json:"query"`
	Timestamp           time.Time           `json:"timestamp"`
	TotalElapsedMS      int64               `json:"total_elapsed_ms"`
	Results             []ScoredPrecedent   `json:"results"`
	SearchElapsedMS     int64               `json:"search_elapsed_ms"`
	Threshold           *ThresholdDecision  `json:"threshold,omitempty"`
	Generative          *GenerativeAnalysis `json:"generative,omitempty"`
	GenerativeElapsedMS int64               `json:"generative_elapsed_ms"`
	GenerativeAvailable bool                `json:"generative_available"`
	Insights            *CombinedInsights   `json:"insights,omitempty"`
	Confidence          float64             `json:"confidence"`
	Recommendation      string              `json:"recommendation"`
}
