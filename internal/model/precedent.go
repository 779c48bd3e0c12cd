package model

// PrecedentDocument is one precedent in the index snapshot. Documents are
// built offline and never mutated after the index is loaded.
type PrecedentDocument struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Court    string   `json:"court"`
	Date     string   `json:"date"`
	Category string   `json:"category"`
	Tokens   []string `json:"tokens"`
}

type Favorability string

const (
	FavorabilityFavorable   Favorability = "favorable"
	FavorabilityUnfavorable Favorability = "unfavorable"
	FavorabilityNeutral     Favorability = "neutral"
)

// FavorabilityBreakdown carries the label plus the score detail that produced
// it, so callers can audit the classification.
type FavorabilityBreakdown struct {
	Label            Favorability `json:"label"`
	Confidence       float64      `json:"confidence"`
	FavorableScore   float64      `json:"favorable_score"`
	UnfavorableScore float64      `json:"unfavorable_score"`
	MatchedPhrase    string       `json:"matched_phrase,omitempty"`
}

// ScoredPrecedent is one ranked search result.
type ScoredPrecedent struct {
	CaseID            string                `json:"case_id"`
	Title             string                `json:"title"`
	Summary           string                `json:"summary"`
	Court             string                `json:"court"`
	Date              string                `json:"date"`
	Category          string                `json:"category"`
	BaseSimilarity    float64               `json:"base_similarity"`
	BoostedSimilarity float64               `json:"boosted_similarity"`
	MatchedKeywords   []string              `json:"matched_keywords"`
	Favorability      FavorabilityBreakdown `json:"favorability"`
	Rank              int                   `json:"rank"`
}
