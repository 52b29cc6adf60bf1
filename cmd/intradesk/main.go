package main

import (
	"context"
	"database/sql"
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

	"github.com/tenclo/intradesk/internal/ai"
	"github.com/tenclo/intradesk/internal/config"
	"github.com/tenclo/intradesk/internal/db"
	"github.com/tenclo/intradesk/internal/filestore"
	"github.com/tenclo/intradesk/internal/handler"
	"github.com/tenclo/intradesk/internal/job"
	"github.com/tenclo/intradesk/internal/middleware"
	"github.com/tenclo/intradesk/internal/pdf"
	"github.com/tenclo/intradesk/internal/repo"
	"github.com/tenclo/intradesk/internal/schedule"
	"github.com/tenclo/intradesk/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "intradesk",
		Short: "intradesk portal backend",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run intradesk server",
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

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("embedding_provider", cfg.Embedding.Provider),
	)

	circularRepo := repo.NewCircularRepo(conn)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	provider, err := ai.NewProvider(cfg.Embedding.Provider, cfg.Embedding.Data)
	if err != nil {
		return fmt.Errorf("init embedding provider: %w", err)
	}
	embedder := ai.NewEmbedder(provider, cfg.Embedding.Model, cfg.Embedding.Dimension)

	rasterizer := pdf.NewRasterizer(cfg.Ingest.RenderScale)
	pipeline := service.NewEmbedPipeline(circularRepo, embedder, pdf.ExtractText, cfg.Embedding.QueueSize)
	ingestService := service.NewIngestService(circularRepo, store, rasterizer, pipeline)
	circularService := service.NewCircularService(circularRepo)
	searchService := service.NewSearchService(circularRepo, embedder)

	deps := handler.RouterDeps{
		Circulars:     handler.NewCircularHandler(ingestService, circularService, cfg.Ingest.MaxUploadMB),
		Search:        handler.NewSearchHandler(searchService),
		Files:         handler.NewFileHandler(store),
		JWTSecret:     []byte(cfg.JWTSecret),
		PublishWindow: time.Duration(cfg.Ingest.PublishWindowSec) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline.Start(ctx)

	scheduler := schedule.NewCronScheduler()
	backfill := job.NewEmbeddingBackfillJob(pipeline, cfg.Embedding.BackfillBatch)
	if err := scheduler.AddJob(backfill, cfg.Embedding.BackfillSpec); err != nil {
		return fmt.Errorf("schedule backfill: %w", err)
	}
	scheduler.Start(ctx)

	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))
	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	scheduler.Stop()
	pipeline.Wait()
	return nil
}
