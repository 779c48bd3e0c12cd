package search

import (
	"strings"
	"unicode"

	"github.com/xxxsen/casepedia/internal/index"
	"github.com/xxxsen/casepedia/internal/model"
)

// Analyzer tokenizes a raw query and profiles it for the threshold
// calculator.
type Analyzer struct {
	idx *index.Index
}

func NewAnalyzer(idx *index.Index) *Analyzer {
	return &Analyzer{idx: idx}
}

// Tokenize lowercases, splits on anything that is not a letter or digit,
// keeps tokens of at least two runes and drops stopwords. This is the same
// normalization the snapshot builder applies to document bodies.
func (a *Analyzer) Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		if len([]rune(field)) < 2 {
			continue
		}
		if a.idx.IsStopword(field) {
			continue
		}
		tokens = append(tokens, field)
	}
	return tokens
}

// Analyze builds the per-request query profile.
//
// quality starts at 0.5, +0.2 for legal terms, +0.2 for specific incident
// terms, +0.1 for five or more tokens, capped at 1.0.
func (a *Analyzer) Analyze(query string) model.QueryProfile {
	tokens := a.Tokenize(query)
	tokenSet := make(map[string]struct{}, len(tokens))
	domainHits := 0
	for _, token := range tokens {
		if _, seen := tokenSet[token]; seen {
			continue
		}
		tokenSet[token] = struct{}{}
		if a.idx.IsDomainKeyword(token) {
			domainHits++
		}
	}
	domainRatio := float64(domainHits) / float64(max(len(tokenSet), 1))

	normalized := strings.ToLower(query)
	domain := a.idx.Domain()
	hasLegal := containsAny(normalized, domain.LegalTerms)
	hasSpecific := containsAny(normalized, domain.SpecificTerms)

	quality := 0.5
	if hasLegal {
		quality += 0.2
	}
	if hasSpecific {
		quality += 0.2
	}
	if len(tokens) >= 5 {
		quality += 0.1
	}
	if quality > 1.0 {
		quality = 1.0
	}

	return model.QueryProfile{
		Raw:              query,
		Tokens:           tokens,
		TokenCount:       len(tokens),
		DomainRatio:      domainRatio,
		HasLegalTerms:    hasLegal,
		HasSpecificTerms: hasSpecific,
		QualityScore:     quality,
	}
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(text, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
