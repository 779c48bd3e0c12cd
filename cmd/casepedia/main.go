package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/casepedia/internal/cache"
	"github.com/xxxsen/casepedia/internal/config"
	"github.com/xxxsen/casepedia/internal/generative"
	"github.com/xxxsen/casepedia/internal/handler"
	"github.com/xxxsen/casepedia/internal/index"
	"github.com/xxxsen/casepedia/internal/job"
	"github.com/xxxsen/casepedia/internal/middleware"
	"github.com/xxxsen/casepedia/internal/schedule"
	"github.com/xxxsen/casepedia/internal/search"
	"github.com/xxxsen/casepedia/internal/service"
	"github.com/xxxsen/casepedia/internal/snapshot"
)

const statsReportSpec = "*/10 * * * *"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "casepedia",
		Short: "casepedia precedent search server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run casepedia server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logutil.GetLogger(ctx).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("snapshot_store", cfg.Snapshot.Type),
		zap.String("generative_provider", cfg.Generative.Provider),
	)

	store, err := snapshot.New(cfg.Snapshot)
	if err != nil {
		return fmt.Errorf("init snapshot store: %w", err)
	}
	idx, err := index.Load(ctx, store)
	if err != nil {
		// A service without its index cannot answer anything.
		return fmt.Errorf("load index: %w", err)
	}
	logutil.GetLogger(ctx).Info("index loaded",
		zap.Int("documents", idx.Stats().Documents),
		zap.Int("vocabulary_size", idx.Stats().VocabularySize),
	)

	engine := search.NewEngine(idx, cfg.Search.BoostMultiplier, cfg.Search.DefaultTopK)
	chain := search.NewChain(
		search.NewRankedStrategy(engine),
		search.NewBasicStrategy(idx),
		search.NewSimpleStrategy(idx),
	)
	if err := chain.HealthCheck(ctx); err != nil {
		return fmt.Errorf("strategy chain: %w", err)
	}

	var analyzer *generative.Analyzer
	if cfg.Generative.Provider != "" {
		provider, err := generative.NewProvider(cfg.Generative.Provider, cfg.Generative.Data)
		if err != nil {
			return fmt.Errorf("init generative provider: %w", err)
		}
		analyzer = generative.NewAnalyzer(provider, cfg.Generative.Model, time.Duration(cfg.Generative.TimeoutSeconds)*time.Second)
	}

	pipelineCache := cache.NewResponseCache(cfg.Cache.Capacity, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	fastCache := cache.NewResponseCache(cfg.Cache.Capacity, time.Duration(cfg.Cache.FastTTLSeconds)*time.Second)
	pipeline := service.NewPipelineService(engine, chain, analyzer, pipelineCache, fastCache,
		time.Duration(cfg.Search.FastDeadlineSeconds)*time.Second)
	hybrid := service.NewHybridService(engine, pipeline, analyzer)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewStatsReportJob(idx, pipeline), statsReportSpec); err != nil {
		return fmt.Errorf("schedule stats job: %w", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	deps := handler.RouterDeps{
		Search:        handler.NewSearchHandler(hybrid, idx),
		StreamLimiter: middleware.RateLimit(time.Second),
	}
	webEngine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			middleware.RequestID(),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	go func() {
		if err := webEngine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
