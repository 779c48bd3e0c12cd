package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/casepedia/internal/cache"
	"github.com/xxxsen/casepedia/internal/generative"
	"github.com/xxxsen/casepedia/internal/index"
	"github.com/xxxsen/casepedia/internal/model"
	"github.com/xxxsen/casepedia/internal/search"
)

type memStore struct {
	data []byte
}

func (s *memStore) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

type snapshotFixture struct {
	Documents          []model.PrecedentDocument `json:"documents"`
	Vocabulary         map[string]int            `json:"vocabulary"`
	TermDocumentMatrix []index.SparseVector      `json:"term_document_matrix"`
	DomainConfig       *index.DomainConfig       `json:"domain_config"`
}

func newTestIndex(t *testing.T) *index.Index {
	t.Helper()
	fixture := snapshotFixture{
		Documents: []model.PrecedentDocument{
			{
				ID:       "c001",
				Title:    "Press machine finger amputation case",
				Body:     "Worker lost a finger in a press machine accident and the claim approved.",
				Court:    "Seoul Administrative Court",
				Date:     "2023-05-10",
				Category: "machinery",
				Tokens:   []string{"press", "machine", "finger", "injury"},
			},
			{
				ID:       "c002",
				Title:    "Chronic back pain claim",
				Body:     "The commission found no causal link and the claim denied.",
				Court:    "Busan District Court",
				Date:     "2022-11-02",
				Category: "musculoskeletal",
				Tokens:   []string{"back", "pain", "injury"},
			},
		},
		Vocabulary: map[string]int{"press": 0, "machine": 1, "finger": 2, "injury": 3, "back": 4, "pain": 5},
		TermDocumentMatrix: []index.SparseVector{
			{Indices: []int{0, 1, 2, 3}, Values: []float64{1, 1, 1, 1}},
			{Indices: []int{3, 4, 5}, Values: []float64{1, 1, 1}},
		},
		DomainConfig: &index.DomainConfig{
			FavorableKeywords:   []string{"approved"},
			UnfavorableKeywords: []string{"denied"},
			DomainKeywords:      []string{"press", "machine", "finger"},
			LegalTerms:          []string{"compensation"},
			SpecificTerms:       []string{"press"},
			Stopwords:           []string{"the", "during"},
			OutcomePhrases: []index.OutcomePhrase{
				{Phrase: "claim approved", Label: model.FavorabilityFavorable, Confidence: 0.9},
				{Phrase: "claim denied", Label: model.FavorabilityUnfavorable, Confidence: 0.9},
			},
			BoostMultiplier: 2.0,
		},
	}
	data, err := json.Marshal(fixture)
	require.NoError(t, err)
	idx, err := index.Load(context.Background(), &memStore{data: data})
	require.NoError(t, err)
	return idx
}

// stubProvider answers with a fixed payload, or blocks until the context
// expires when hang is set.
type stubProvider struct {
	payload string
	hang    bool
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	if p.hang {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return p.payload, nil
}

const stubAnalysisJSON = `{"summary": "precedents favor the claimant", "recommendations": ["collect medical records"], "precedents": [{"title": "Press machine case", "reference": "2023-5-10", "note": "same accident type"}]}`

func newTestPipeline(t *testing.T, analyzer *generative.Analyzer) (*PipelineService, *cache.ResponseCache) {
	t.Helper()
	idx := newTestIndex(t)
	engine := search.NewEngine(idx, 0, 10)
	chain := search.NewChain(
		search.NewRankedStrategy(engine),
		search.NewBasicStrategy(idx),
	)
	pipelineCache := cache.NewResponseCache(10, time.Minute)
	fastCache := cache.NewResponseCache(10, time.Minute)
	return NewPipelineService(engine, chain, analyzer, pipelineCache, fastCache, time.Second), pipelineCache
}

func collectPhases(t *testing.T, stages <-chan model.StageResponse) []model.StageResponse {
	t.Helper()
	var out []model.StageResponse
	for stage := range stages {
		out = append(out, stage)
	}
	return out
}

func TestStream_PhasesArriveInOrder(t *testing.T) {
	pipeline, _ := newTestPipeline(t, nil)
	phases := collectPhases(t, pipeline.Stream(context.Background(), search.Request{Query: "press machine injury"}))

	require.Len(t, phases, 3)
	require.Equal(t, model.PhaseImmediate, phases[0].Phase)
	require.Equal(t, model.PhaseEnhanced, phases[1].Phase)
	require.Equal(t, model.PhaseComplete, phases[2].Phase)

	require.Equal(t, 0.6, phases[0].Confidence)
	require.Equal(t, 0.75, phases[1].Confidence)
	require.NotEmpty(t, phases[0].Results)
	require.Nil(t, phases[0].Favorability)
	require.NotNil(t, phases[1].Favorability)
	require.NotEmpty(t, phases[1].Recommendation)
	require.NotNil(t, phases[2].Insights)
	require.Nil(t, phases[2].Generative)
	require.False(t, phases[2].Insights.GenerativeAvailable)
}

func TestStream_SecondCallHitsCache(t *testing.T) {
	pipeline, pipelineCache := newTestPipeline(t, nil)
	req := search.Request{Query: "press machine injury"}

	first := collectPhases(t, pipeline.Stream(context.Background(), req))
	require.Len(t, first, 3)
	require.Eventually(t, func() bool {
		return pipelineCache.Stats().Sets == 1
	}, time.Second, 10*time.Millisecond)

	second := collectPhases(t, pipeline.Stream(context.Background(), req))
	require.Len(t, second, 1)
	require.True(t, second[0].CacheHit)
	require.Equal(t, model.PhaseComplete, second[0].Phase)
	require.Equal(t, first[2].Confidence, second[0].Confidence)
}

func TestStream_HangingProviderDegradesWithinDeadline(t *testing.T) {
	analyzer := generative.NewAnalyzer(&stubProvider{hang: true}, "stub-model", 50*time.Millisecond)
	pipeline, _ := newTestPipeline(t, analyzer)

	start := time.Now()
	phases := collectPhases(t, pipeline.Stream(context.Background(), search.Request{Query: "press machine injury"}))
	require.Less(t, time.Since(start), 2*time.Second)

	require.Len(t, phases, 3)
	complete := phases[2]
	require.Equal(t, model.PhaseComplete, complete.Phase)
	require.Nil(t, complete.Generative)
	require.NotEmpty(t, complete.Results)
}

func TestStream_WorkingProviderEnrichesComplete(t *testing.T) {
	analyzer := generative.NewAnalyzer(&stubProvider{payload: stubAnalysisJSON}, "stub-model", time.Second)
	pipeline, _ := newTestPipeline(t, analyzer)

	phases := collectPhases(t, pipeline.Stream(context.Background(), search.Request{Query: "press machine injury"}))
	require.Len(t, phases, 3)
	complete := phases[2]
	require.NotNil(t, complete.Generative)
	require.Equal(t, "precedents favor the claimant", complete.Generative.Summary)
	require.True(t, complete.Insights.GenerativeAvailable)
	require.Greater(t, complete.Confidence, phases[1].Confidence)
}

func TestStream_CancelledContextStopsEarly(t *testing.T) {
	pipeline, _ := newTestPipeline(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stages := pipeline.Stream(ctx, search.Request{Query: "press machine injury"})
	phases := collectPhases(t, stages)
	require.LessOrEqual(t, len(phases), 3)
}

func TestSearchFast_CategoryFilterKeysCacheSeparately(t *testing.T) {
	pipeline, _ := newTestPipeline(t, nil)

	machinery, err := pipeline.SearchFast(context.Background(), search.Request{
		Query:    "injury",
		Category: "machinery",
	})
	require.NoError(t, err)
	require.False(t, machinery.CacheHit)
	require.Len(t, machinery.Results, 1)
	require.Equal(t, "c001", machinery.Results[0].CaseID)

	// Same query with a different category must not serve the cached entry.
	musculo, err := pipeline.SearchFast(context.Background(), search.Request{
		Query:    "injury",
		Category: "musculoskeletal",
	})
	require.NoError(t, err)
	require.False(t, musculo.CacheHit)
	require.Len(t, musculo.Results, 1)
	require.Equal(t, "c002", musculo.Results[0].CaseID)
}

// failingStrategy stands in for a chain where every strategy is broken.
type failingStrategy struct{}

func (s *failingStrategy) Name() string { return "failing" }

func (s *failingStrategy) HealthCheck(ctx context.Context) error { return nil }

func (s *failingStrategy) Search(ctx context.Context, req search.Request) ([]model.ScoredPrecedent, *model.ThresholdDecision, error) {
	return nil, nil, errors.New("index corrupted")
}

func TestStream_AllStrategiesFailingEmitsDegradedStage(t *testing.T) {
	idx := newTestIndex(t)
	engine := search.NewEngine(idx, 0, 10)
	chain := search.NewChain(&failingStrategy{})
	pipeline := NewPipelineService(engine, chain, nil,
		cache.NewResponseCache(10, time.Minute), cache.NewResponseCache(10, time.Minute), time.Second)

	phases := collectPhases(t, pipeline.Stream(context.Background(), search.Request{Query: "press machine injury"}))
	require.Len(t, phases, 1)
	require.Equal(t, model.PhaseImmediate, phases[0].Phase)
	require.NotNil(t, phases[0].Results)
	require.Empty(t, phases[0].Results)
	require.NotEmpty(t, phases[0].Recommendation)
}

func TestSearchFast_ServesAndCaches(t *testing.T) {
	pipeline, _ := newTestPipeline(t, nil)
	req := search.Request{Query: "back pain injury"}

	first, err := pipeline.SearchFast(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.CacheHit)
	require.NotEmpty(t, first.Results)
	require.NotNil(t, first.Favorability)

	second, err := pipeline.SearchFast(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.CacheHit)
	require.Equal(t, first.Recommendation, second.Recommendation)
}

func TestStats_CountsRequestsAndPhases(t *testing.T) {
	pipeline, _ := newTestPipeline(t, nil)
	collectPhases(t, pipeline.Stream(context.Background(), search.Request{Query: "press machine injury"}))

	stats := pipeline.Stats()
	require.Equal(t, int64(1), stats.Requests)
	require.Equal(t, int64(1), stats.PhaseCounts[string(model.PhaseImmediate)])
	require.Equal(t, int64(1), stats.PhaseCounts[string(model.PhaseComplete)])
}
