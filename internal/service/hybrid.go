package service

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/casepedia/internal/generative"
	"github.com/xxxsen/casepedia/internal/model"
	"github.com/xxxsen/casepedia/internal/search"
)

// HybridRequest is the single-shot orchestrated search request.
type HybridRequest struct {
	Query             string              `json:"query"`
	TopK              int                 `json:"top_k"`
	IncludeGenerative bool                `json:"include_generative"`
	TimeoutSeconds    int                 `json:"timeout_seconds"`
	Accuracy          model.AccuracyLevel `json:"accuracy_level"`
	Category          string              `json:"category"`
}

// HybridService is the public façade over the ranked engine, the progressive
// pipeline and the generative collaborator.
type HybridService struct {
	engine     *search.Engine
	pipeline   *PipelineService
	generative *generative.Analyzer
}

func NewHybridService(engine *search.Engine, pipeline *PipelineService, analyzer *generative.Analyzer) *HybridService {
	return &HybridService{
		engine:     engine,
		pipeline:   pipeline,
		generative: analyzer,
	}
}

// Search is the plain ranked search: results plus the threshold decision that
// produced them.
func (s *HybridService) Search(ctx context.Context, req search.Request) ([]model.ScoredPrecedent, model.ThresholdDecision, error) {
	return s.engine.Search(ctx, req)
}

// QuickSearch is the deadline-bounded fast path backed by the short-TTL cache.
func (s *HybridService) QuickSearch(ctx context.Context, req search.Request) (*model.StageResponse, error) {
	return s.pipeline.SearchFast(ctx, req)
}

// StreamSearch exposes the progressive pipeline.
func (s *HybridService) StreamSearch(ctx context.Context, req search.Request) <-chan model.StageResponse {
	return s.pipeline.Stream(ctx, req)
}

// HybridSearch runs ranked search and generative analysis as one synchronous
// call. The generative part is best effort: on timeout or provider failure
// the ranked answer is returned with generative_available=false.
func (s *HybridService) HybridSearch(ctx context.Context, req HybridRequest) (*model.HybridResult, error) {
	start := time.Now()
	searchReq := search.Request{
		Query:    req.Query,
		TopK:     req.TopK,
		Accuracy: req.Accuracy,
		Category: req.Category,
	}
	results, decision, err := s.engine.Search(ctx, searchReq)
	if err != nil {
		return nil, err
	}
	searchElapsed := time.Since(start)

	var analysis *model.GenerativeAnalysis
	var generativeElapsed time.Duration
	if req.IncludeGenerative && s.generative.Available() && len(results) > 0 {
		genCtx := ctx
		if req.TimeoutSeconds > 0 {
			var cancel context.CancelFunc
			genCtx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutSeconds)*time.Second)
			defer cancel()
		}
		genStart := time.Now()
		analysis, err = s.generative.Analyze(genCtx, req.Query, results)
		generativeElapsed = time.Since(genStart)
		if err != nil {
			logutil.GetLogger(ctx).Warn("hybrid generative degraded", zap.Error(err))
			analysis = nil
		}
	}

	agg := aggregateFavorability(results)
	insights := buildCombinedInsights(results, analysis)
	return &model.HybridResult{
		Query:               req.Query,
		Timestamp:           time.Now(),
		TotalElapsedMS:      time.Since(start).Milliseconds(),
		Results:             results,
		SearchElapsedMS:     searchElapsed.Milliseconds(),
		Threshold:           &decision,
		Generative:          analysis,
		GenerativeElapsedMS: generativeElapsed.Milliseconds(),
		GenerativeAvailable: analysis != nil,
		Insights:            insights,
		Confidence:          insights.CombinedConfidence,
		Recommendation:      recommendationFor(agg),
	}, nil
}

// Stats merges the pipeline counters with whatever the index reports.
func (s *HybridService) Stats() PipelineStats {
	return s.pipeline.Stats()
}
