package search

import (
	"github.com/xxxsen/casepedia/internal/index"
)

// Booster re-weights raw cosine similarities by keyword overlap between the
// query and each document's token set. Domain keywords in the overlap weigh
// extra. A per-document failure (missing token data) keeps the base score.
type Booster struct {
	idx        *index.Index
	multiplier float64
}

// NewBooster uses the snapshot's boost multiplier unless override > 0.
func NewBooster(idx *index.Index, override float64) *Booster {
	multiplier := idx.Domain().BoostMultiplier
	if override > 0 {
		multiplier = override
	}
	return &Booster{idx: idx, multiplier: multiplier}
}

func (b *Booster) Boost(base []float64, queryTokens []string) []float64 {
	boosted := make([]float64, len(base))
	copy(boosted, base)
	if len(queryTokens) == 0 || b.multiplier <= 1 {
		return boosted
	}

	querySet := make(map[string]struct{}, len(queryTokens))
	for _, token := range queryTokens {
		querySet[token] = struct{}{}
	}

	for i := range base {
		docTokens := b.idx.DocumentTokens(i)
		if docTokens == nil {
			continue
		}
		common := 0
		domainCount := 0
		for token := range querySet {
			if _, ok := docTokens[token]; !ok {
				continue
			}
			common++
			if b.idx.IsDomainKeyword(token) {
				domainCount++
			}
		}
		if common == 0 {
			continue
		}
		matchRatio := float64(common) / float64(max(len(queryTokens), 1))
		boostFactor := matchRatio * (1 + 0.2*float64(domainCount)) * (b.multiplier - 1)
		boosted[i] = base[i] * (1 + boostFactor)
		if boosted[i] > 1.0 {
			boosted[i] = 1.0
		}
	}
	return boosted
}

// MatchedKeywords returns up to limit overlap keywords for one document,
// domain keywords first.
func (b *Booster) MatchedKeywords(queryTokens []string, docIdx int, limit int) []string {
	docTokens := b.idx.DocumentTokens(docIdx)
	if docTokens == nil || limit <= 0 {
		return nil
	}
	seen := map[string]struct{}{}
	var domainHits, otherHits []string
	for _, token := range queryTokens {
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		if _, ok := docTokens[token]; !ok {
			continue
		}
		if b.idx.IsStopword(token) {
			continue
		}
		if b.idx.IsDomainKeyword(token) {
			domainHits = append(domainHits, token)
		} else {
			otherHits = append(otherHits, token)
		}
	}
	matched := append(domainHits, otherHits...)
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
