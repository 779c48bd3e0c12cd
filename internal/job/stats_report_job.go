package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/casepedia/internal/index"
	"github.com/xxxsen/casepedia/internal/service"
)

// StatsReportJob periodically logs index shape and pipeline counters so a
// log-only deployment still has a performance trail.
type StatsReportJob struct {
	idx      *index.Index
	pipeline *service.PipelineService
}

func NewStatsReportJob(idx *index.Index, pipeline *service.PipelineService) *StatsReportJob {
	return &StatsReportJob{idx: idx, pipeline: pipeline}
}

func (j *StatsReportJob) Name() string {
	return "stats_report"
}

func (j *StatsReportJob) Run(ctx context.Context) error {
	indexStats := j.idx.Stats()
	pipelineStats := j.pipeline.Stats()
	logutil.GetLogger(ctx).Info("service stats",
		zap.Int("documents", indexStats.Documents),
		zap.Int("vocabulary_size", indexStats.VocabularySize),
		zap.Int64("requests", pipelineStats.Requests),
		zap.Float64("cache_hit_rate", pipelineStats.CacheHitRate),
		zap.Float64("avg_immediate_ms", pipelineStats.AvgImmediateMS),
		zap.Float64("avg_complete_ms", pipelineStats.AvgCompleteMS),
		zap.Int("pipeline_cache_size", pipelineStats.PipelineCache.Size),
		zap.Int("fast_cache_size", pipelineStats.FastCache.Size),
	)
	return nil
}
