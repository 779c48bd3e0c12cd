package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/casepedia/internal/cache"
	"github.com/xxxsen/casepedia/internal/generative"
	"github.com/xxxsen/casepedia/internal/model"
	"github.com/xxxsen/casepedia/internal/search"
)

const (
	immediateConfidence = 0.6
	enhancedConfidence  = 0.75

	defaultFastDeadline = 15 * time.Second
)

// PipelineService runs the progressive search pipeline: an immediate ranked
// answer, an enhanced answer with favorability aggregation, and a complete
// answer with generative enrichment. Earlier phases never wait on later ones.
type PipelineService struct {
	engine     *search.Engine
	chain      *search.Chain
	generative *generative.Analyzer

	pipelineCache *cache.ResponseCache
	fastCache     *cache.ResponseCache
	fastDeadline  time.Duration

	requests       atomic.Int64
	cacheHits      atomic.Int64
	immediateCount atomic.Int64
	enhancedCount  atomic.Int64
	completeCount  atomic.Int64
	immediateMS    atomic.Int64
	completeMS     atomic.Int64
}

type PipelineStats struct {
	Requests       int64            `json:"requests"`
	CacheHits      int64            `json:"cache_hits"`
	CacheHitRate   float64          `json:"cache_hit_rate"`
	PhaseCounts    map[string]int64 `json:"phase_counts"`
	AvgImmediateMS float64          `json:"avg_immediate_ms"`
	AvgCompleteMS  float64          `json:"avg_complete_ms"`
	PipelineCache  cache.Stats      `json:"pipeline_cache"`
	FastCache      cache.Stats      `json:"fast_cache"`
}

func NewPipelineService(
	engine *search.Engine,
	chain *search.Chain,
	analyzer *generative.Analyzer,
	pipelineCache *cache.ResponseCache,
	fastCache *cache.ResponseCache,
	fastDeadline time.Duration,
) *PipelineService {
	if fastDeadline <= 0 {
		fastDeadline = defaultFastDeadline
	}
	return &PipelineService{
		engine:        engine,
		chain:         chain,
		generative:    analyzer,
		pipelineCache: pipelineCache,
		fastCache:     fastCache,
		fastDeadline:  fastDeadline,
	}
}

// Stream runs the three phases and emits one StageResponse per phase on the
// returned channel. The channel is closed when the pipeline finishes or the
// context is cancelled. A cached answer short-circuits to a single response.
func (p *PipelineService) Stream(ctx context.Context, req search.Request) <-chan model.StageResponse {
	out := make(chan model.StageResponse, 3)
	go func() {
		defer close(out)
		p.run(ctx, req, out)
	}()
	return out
}

func (p *PipelineService) run(ctx context.Context, req search.Request, out chan<- model.StageResponse) {
	p.requests.Add(1)
	start := time.Now()
	logger := logutil.GetLogger(ctx).With(zap.String("query", req.Query))

	key := cache.Key(req.Query, req.TopK, string(req.Accuracy), req.Category, p.generative.Available())
	if cached, ok := p.pipelineCache.Get(key); ok {
		p.cacheHits.Add(1)
		resp := *cached
		resp.CacheHit = true
		resp.Timestamp = time.Now()
		resp.ElapsedMS = time.Since(start).Milliseconds()
		p.send(ctx, out, resp)
		return
	}

	// Phase 1: immediate ranked results. When every strategy fails the stream
	// still carries one explicit degraded stage instead of closing silently.
	results, decision, err := p.chain.Search(ctx, req)
	if err != nil {
		logger.Error("pipeline search failed", zap.Error(err))
		p.send(ctx, out, model.StageResponse{
			Phase:          model.PhaseImmediate,
			Query:          req.Query,
			Timestamp:      time.Now(),
			ElapsedMS:      time.Since(start).Milliseconds(),
			Results:        []model.ScoredPrecedent{},
			Recommendation: "search is temporarily unavailable, please retry",
		})
		return
	}
	immediate := model.StageResponse{
		Phase:      model.PhaseImmediate,
		Query:      req.Query,
		Timestamp:  time.Now(),
		ElapsedMS:  time.Since(start).Milliseconds(),
		Results:    results,
		Threshold:  decision,
		Confidence: immediateConfidence,
	}
	p.immediateCount.Add(1)
	p.immediateMS.Add(immediate.ElapsedMS)
	if !p.send(ctx, out, immediate) {
		return
	}

	// Phase 2: favorability aggregation over the same result set.
	agg := aggregateFavorability(results)
	enhanced := immediate
	enhanced.Phase = model.PhaseEnhanced
	enhanced.Timestamp = time.Now()
	enhanced.ElapsedMS = time.Since(start).Milliseconds()
	enhanced.Favorability = agg
	enhanced.Recommendation = recommendationFor(agg)
	enhanced.Confidence = enhancedConfidence
	p.enhancedCount.Add(1)
	if !p.send(ctx, out, enhanced) {
		return
	}

	// Phase 3: generative enrichment under its own deadline. A failure here
	// degrades to the enhanced answer instead of dropping the stream.
	var analysis *model.GenerativeAnalysis
	if p.generative.Available() && len(results) > 0 {
		analysis, err = p.generative.Analyze(ctx, req.Query, results)
		if err != nil {
			logger.Warn("generative phase degraded", zap.Error(err))
			analysis = nil
		}
	}
	insights := buildCombinedInsights(results, analysis)
	complete := enhanced
	complete.Phase = model.PhaseComplete
	complete.Timestamp = time.Now()
	complete.ElapsedMS = time.Since(start).Milliseconds()
	complete.Generative = analysis
	complete.Insights = insights
	complete.Confidence = insights.CombinedConfidence
	p.completeCount.Add(1)
	p.completeMS.Add(complete.ElapsedMS)
	if !p.send(ctx, out, complete) {
		return
	}

	cacheable := complete
	go func() {
		if err := p.pipelineCache.Put(key, &cacheable); err != nil {
			logutil.GetLogger(context.Background()).Warn("pipeline cache put failed", zap.Error(err))
		}
	}()
}

func (p *PipelineService) send(ctx context.Context, out chan<- model.StageResponse, resp model.StageResponse) bool {
	select {
	case out <- resp:
		return true
	case <-ctx.Done():
		return false
	}
}

// SearchFast is the low-latency single-shot path. It serves from its own
// short-TTL cache and bounds the whole search by a hard deadline, falling
// through the strategy chain if the ranked path fails.
func (p *PipelineService) SearchFast(ctx context.Context, req search.Request) (*model.StageResponse, error) {
	p.requests.Add(1)
	start := time.Now()

	key := cache.Key(req.Query, req.TopK, string(req.Accuracy), req.Category, false)
	if cached, ok := p.fastCache.Get(key); ok {
		p.cacheHits.Add(1)
		resp := *cached
		resp.CacheHit = true
		resp.Timestamp = time.Now()
		resp.ElapsedMS = time.Since(start).Milliseconds()
		return &resp, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.fastDeadline)
	defer cancel()
	results, decision, err := p.chain.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	agg := aggregateFavorability(results)
	resp := &model.StageResponse{
		Phase:          model.PhaseEnhanced,
		Query:          req.Query,
		Timestamp:      time.Now(),
		ElapsedMS:      time.Since(start).Milliseconds(),
		Results:        results,
		Threshold:      decision,
		Favorability:   agg,
		Recommendation: recommendationFor(agg),
		Confidence:     enhancedConfidence,
	}
	p.enhancedCount.Add(1)
	if err := p.fastCache.Put(key, resp); err != nil {
		logutil.GetLogger(ctx).Warn("fast cache put failed", zap.Error(err))
	}
	return resp, nil
}

func (p *PipelineService) Stats() PipelineStats {
	stats := PipelineStats{
		Requests:  p.requests.Load(),
		CacheHits: p.cacheHits.Load(),
		PhaseCounts: map[string]int64{
			string(model.PhaseImmediate): p.immediateCount.Load(),
			string(model.PhaseEnhanced):  p.enhancedCount.Load(),
			string(model.PhaseComplete):  p.completeCount.Load(),
		},
		PipelineCache: p.pipelineCache.Stats(),
		FastCache:     p.fastCache.Stats(),
	}
	if stats.Requests > 0 {
		stats.CacheHitRate = float64(stats.CacheHits) / float64(stats.Requests)
	}
	if n := p.immediateCount.Load(); n > 0 {
		stats.AvgImmediateMS = float64(p.immediateMS.Load()) / float64(n)
	}
	if n := p.completeCount.Load(); n > 0 {
		stats.AvgCompleteMS = float64(p.completeMS.Load()) / float64(n)
	}
	return stats
}
