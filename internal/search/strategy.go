package search

import (
	"context"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/casepedia/internal/index"
	"github.com/xxxsen/casepedia/internal/model"
	appErr "github.com/xxxsen/casepedia/internal/pkg/errors"
)

// Strategy is one way of answering a search request. Strategies are tried in
// a fixed order; each is health-checked independently at startup.
type Strategy interface {
	Name() string
	HealthCheck(ctx context.Context) error
	Search(ctx context.Context, req Request) ([]model.ScoredPrecedent, *model.ThresholdDecision, error)
}

// Chain tries each strategy in order and returns the first answer.
type Chain struct {
	strategies []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies}
}

// HealthCheck verifies every strategy. A single healthy strategy is enough
// to serve; all unhealthy is fatal.
func (c *Chain) HealthCheck(ctx context.Context) error {
	healthy := 0
	for _, s := range c.strategies {
		logger := logutil.GetLogger(ctx).With(zap.String("strategy", s.Name()))
		if err := s.HealthCheck(ctx); err != nil {
			logger.Warn("search strategy unhealthy", zap.Error(err))
			continue
		}
		healthy++
		logger.Info("search strategy healthy")
	}
	if healthy == 0 {
		return fmt.Errorf("%w: no healthy strategy in chain", appErr.ErrStrategyUnhealthy)
	}
	return nil
}

func (c *Chain) Search(ctx context.Context, req Request) ([]model.ScoredPrecedent, *model.ThresholdDecision, error) {
	var lastErr error
	for _, s := range c.strategies {
		results, decision, err := s.Search(ctx, req)
		if err == nil {
			return results, decision, nil
		}
		if appErr.IsInvalid(err) {
			// Caller errors do not improve further down the chain.
			return nil, nil, err
		}
		logutil.GetLogger(ctx).Warn("search strategy failed, trying next",
			zap.String("strategy", s.Name()), zap.Error(err))
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: empty strategy chain", appErr.ErrInternal)
	}
	return nil, nil, lastErr
}

// rankedStrategy is the full pipeline: dynamic threshold, boosting and
// favorability classification.
type rankedStrategy struct {
	engine *Engine
}

func NewRankedStrategy(engine *Engine) Strategy {
	return &rankedStrategy{engine: engine}
}

func (s *rankedStrategy) Name() string {
	return "ranked"
}

func (s *rankedStrategy) HealthCheck(ctx context.Context) error {
	if s.engine == nil || s.engine.idx == nil {
		return fmt.Errorf("ranked strategy has no index")
	}
	return nil
}

func (s *rankedStrategy) Search(ctx context.Context, req Request) ([]model.ScoredPrecedent, *model.ThresholdDecision, error) {
	results, decision, err := s.engine.Search(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return results, &decision, nil
}

// basicStrategy ranks by raw cosine similarity only, with a fixed floor
// instead of a dynamic threshold. It survives broken domain config.
type basicStrategy struct {
	idx      *index.Index
	analyzer *Analyzer
}

const basicMinSimilarity = 0.001

func NewBasicStrategy(idx *index.Index) Strategy {
	return &basicStrategy{idx: idx, analyzer: NewAnalyzer(idx)}
}

func (s *basicStrategy) Name() string {
	return "basic"
}

func (s *basicStrategy) HealthCheck(ctx context.Context) error {
	if s.idx == nil {
		return fmt.Errorf("basic strategy has no index")
	}
	return nil
}

func (s *basicStrategy) Search(ctx context.Context, req Request) ([]model.ScoredPrecedent, *model.ThresholdDecision, error) {
	if req.Query == "" {
		return nil, nil, appErr.ErrInvalid
	}
	tokens := s.analyzer.Tokenize(req.Query)
	sims := s.idx.Similarities(s.idx.Vectorize(tokens))
	return convertBasicHits(s.idx, sims, req.TopK, req.Category), basicDecision(), nil
}

// simpleStrategy scores by token overlap ratio alone. It needs neither the
// vector space nor the domain config, only the per-document token sets.
type simpleStrategy struct {
	idx      *index.Index
	analyzer *Analyzer
}

func NewSimpleStrategy(idx *index.Index) Strategy {
	return &simpleStrategy{idx: idx, analyzer: NewAnalyzer(idx)}
}

func (s *simpleStrategy) Name() string {
	return "simple"
}

func (s *simpleStrategy) HealthCheck(ctx context.Context) error {
	if s.idx == nil {
		return fmt.Errorf("simple strategy has no index")
	}
	return nil
}

func (s *simpleStrategy) Search(ctx context.Context, req Request) ([]model.ScoredPrecedent, *model.ThresholdDecision, error) {
	if req.Query == "" {
		return nil, nil, appErr.ErrInvalid
	}
	tokens := s.analyzer.Tokenize(req.Query)
	scores := make([]float64, s.idx.Size())
	if len(tokens) > 0 {
		for i := 0; i < s.idx.Size(); i++ {
			docTokens := s.idx.DocumentTokens(i)
			if docTokens == nil {
				continue
			}
			hits := 0
			for _, token := range tokens {
				if _, ok := docTokens[token]; ok {
					hits++
				}
			}
			scores[i] = float64(hits) / float64(len(tokens))
		}
	}
	return convertBasicHits(s.idx, scores, req.TopK, req.Category), basicDecision(), nil
}
