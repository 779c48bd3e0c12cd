package search

import (
	"context"
	"sort"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/casepedia/internal/index"
	"github.com/xxxsen/casepedia/internal/model"
	appErr "github.com/xxxsen/casepedia/internal/pkg/errors"
)

const (
	maxSummaryRunes    = 1000
	matchedKeywordsCap = 5
)

// Request is one ranked-search invocation.
type Request struct {
	Query    string
	TopK     int
	Accuracy model.AccuracyLevel
	Category string
}

// Engine composes analyzer, threshold calculator, booster and classifier
// into one request-scoped search operation over the immutable index.
type Engine struct {
	idx         *index.Index
	analyzer    *Analyzer
	threshold   *ThresholdCalculator
	booster     *Booster
	classifier  *Classifier
	defaultTopK int
}

func NewEngine(idx *index.Index, boostOverride float64, defaultTopK int) *Engine {
	if defaultTopK <= 0 {
		defaultTopK = 10
	}
	return &Engine{
		idx:         idx,
		analyzer:    NewAnalyzer(idx),
		threshold:   NewThresholdCalculator(),
		booster:     NewBooster(idx, boostOverride),
		classifier:  NewClassifier(idx.Domain()),
		defaultTopK: defaultTopK,
	}
}

func (e *Engine) Analyzer() *Analyzer {
	return e.analyzer
}

// Search runs the full pipeline: analyze, compute threshold, vectorize,
// cosine similarity, boost, filter (with a single fallback retry at the
// floor threshold), classify, rank, truncate.
//
// An empty query is the only caller error; an empty corpus or a query with
// no usable tokens yields an empty result, not an error.
func (e *Engine) Search(ctx context.Context, req Request) ([]model.ScoredPrecedent, model.ThresholdDecision, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, model.ThresholdDecision{}, appErr.ErrInvalid
	}
	topK := req.TopK
	if topK <= 0 {
		topK = e.defaultTopK
	}

	profile := e.analyzer.Analyze(req.Query)
	decision := e.threshold.Compute(profile, req.Accuracy)
	logger := logutil.GetLogger(ctx).With(
		zap.Int("token_count", profile.TokenCount),
		zap.Float64("threshold", decision.FinalThreshold),
	)

	if e.idx.Size() == 0 || profile.TokenCount == 0 {
		logger.Debug("nothing to rank", zap.Int("corpus", e.idx.Size()))
		return []model.ScoredPrecedent{}, decision, nil
	}

	queryVec := e.idx.Vectorize(profile.Tokens)
	base := e.idx.Similarities(queryVec)
	boosted := e.booster.Boost(base, profile.Tokens)

	candidates := e.filter(boosted, req.Category, decision.FinalThreshold)
	if len(candidates) == 0 {
		// Retry once at the floor instead of returning nothing.
		candidates = e.filter(boosted, req.Category, fallbackThreshold)
		decision.FallbackApplied = true
		decision.Reasoning["fallback"] = "no document cleared the dynamic threshold, retried at the floor"
		logger.Warn("threshold underflow, retried at fallback", zap.Float64("fallback", fallbackThreshold))
	}

	sort.Slice(candidates, func(i, j int) bool {
		return e.less(boosted, candidates[i], candidates[j])
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]model.ScoredPrecedent, 0, len(candidates))
	for rank, docIdx := range candidates {
		doc := e.idx.Document(docIdx)
		results = append(results, model.ScoredPrecedent{
			CaseID:            doc.ID,
			Title:             doc.Title,
			Summary:           truncateRunes(doc.Body, maxSummaryRunes),
			Court:             doc.Court,
			Date:              doc.Date,
			Category:          doc.Category,
			BaseSimilarity:    base[docIdx],
			BoostedSimilarity: boosted[docIdx],
			MatchedKeywords:   e.booster.MatchedKeywords(profile.Tokens, docIdx, matchedKeywordsCap),
			Favorability:      e.classifier.Classify(doc.Body),
			Rank:              rank + 1,
		})
	}
	logger.Info("ranked search finished", zap.Int("results", len(results)))
	return results, decision, nil
}

func (e *Engine) filter(boosted []float64, category string, threshold float64) []int {
	indices := make([]int, 0, len(boosted))
	for i, score := range boosted {
		if score < threshold {
			continue
		}
		if category != "" && e.idx.Document(i).Category != category {
			continue
		}
		indices = append(indices, i)
	}
	return indices
}

// less orders by boosted similarity desc, then date desc, then id asc.
// Dates in the snapshot are ISO formatted so a string compare is a date
// compare.
func (e *Engine) less(boosted []float64, i, j int) bool {
	if boosted[i] != boosted[j] {
		return boosted[i] > boosted[j]
	}
	di, dj := e.idx.Document(i), e.idx.Document(j)
	if di.Date != dj.Date {
		return di.Date > dj.Date
	}
	return di.ID < dj.ID
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
