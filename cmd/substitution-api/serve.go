package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/substitution-api/api/swagger"
	"github.com/noah-isme/substitution-api/internal/handler"
	"github.com/noah-isme/substitution-api/internal/middleware"
	"github.com/noah-isme/substitution-api/internal/repository"
	"github.com/noah-isme/substitution-api/internal/service"
	"github.com/noah-isme/substitution-api/pkg/cache"
	"github.com/noah-isme/substitution-api/pkg/config"
	"github.com/noah-isme/substitution-api/pkg/database"
	"github.com/noah-isme/substitution-api/pkg/jobs"
	"github.com/noah-isme/substitution-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/substitution-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/substitution-api/pkg/middleware/requestid"
	"github.com/noah-isme/substitution-api/pkg/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the local HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	engine, state, err := buildEngine(cfg, logr)
	if err != nil {
		return err
	}

	metrics := service.NewMetricsService()
	engine.AttachMetrics(metrics)

	cacheSvc := buildCache(cfg, metrics, logr)
	if cacheSvc.Enabled() {
		engine.AttachCache(cacheSvc)
	}

	var history *repository.HistoryRepository
	if cfg.History.Enabled {
		db, dbErr := database.NewSQLite(cfg.History)
		if dbErr != nil {
			return fmt.Errorf("open history store: %w", dbErr)
		}
		defer db.Close() //nolint:errcheck
		history, err = repository.NewHistoryRepository(db)
		if err != nil {
			return err
		}
		engine.AttachHistory(history)
	}

	var exports *service.ExportService
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		files, storErr := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if storErr != nil {
			return storErr
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exports = service.NewExportService(engine, files, signer, service.ExportConfig{
			APIPrefix:       cfg.APIPrefix,
			ResultTTL:       cfg.Exports.SignedURLTTL,
			CleanupInterval: cfg.Exports.CleanupInterval,
		}, logr, nil, nil)
		exportQueue = jobs.NewQueue("exports", exports.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exports.AttachQueue(exportQueue)
		exportQueue.Start(ctx)
		defer exportQueue.Stop()
		exports.StartCleanup(ctx)
	}

	// Sources may still be syncing on first boot; each run re-reads them.
	if err := engine.LoadData(ctx); err != nil {
		logr.Warn("initial source load failed; runs will retry", zap.Error(err))
	}

	router := buildRouter(cfg, logr, metrics, engine, state, cacheSvc, exports, history)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logr.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// buildEngine wires the allocation engine onto its source and state
// repositories.
func buildEngine(cfg *config.Config, logr *zap.Logger) (*service.AssignmentService, *repository.StateRepository, error) {
	validate := validator.New()

	state, err := repository.NewStateRepository(cfg.State.Dir)
	if err != nil {
		return nil, nil, err
	}

	engine := service.NewAssignmentService(
		repository.NewTimetableRepository(cfg.Sources.TimetableFile),
		repository.NewRosterRepository(cfg.Sources.RosterFile, cfg.Engine.DefaultGradeLevel),
		repository.NewScheduleRepository(cfg.Sources.SchedulesFile, validate),
		repository.NewOverrideRepository(cfg.Sources.OverridesFile, validate),
		state,
		cfg.Engine,
		logr,
	)
	return engine, state, nil
}

func buildCache(cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if !cfg.Cache.Enabled {
		return service.NewCacheService(nil, metrics, cfg.Cache.TTL, logr, false)
	}
	client, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable; cache disabled", zap.Error(err))
		return service.NewCacheService(nil, metrics, cfg.Cache.TTL, logr, false)
	}
	repo := repository.NewCacheRepository(client, logr)
	return service.NewCacheService(repo, metrics, cfg.Cache.TTL, logr, true)
}

func buildRouter(
	cfg *config.Config,
	logr *zap.Logger,
	metrics *service.MetricsService,
	engine *service.AssignmentService,
	state *repository.StateRepository,
	cacheSvc *service.CacheService,
	exports *service.ExportService,
	history *repository.HistoryRepository,
) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	assignments := handler.NewAssignmentHandler(engine, cacheSvc)
	diagnostics := handler.NewDiagnosticsHandler(state)
	teachers := handler.NewTeacherHandler(engine)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/assignments/auto", assignments.AutoAssign)
		api.GET("/assignments", assignments.List)
		api.POST("/assignments/verify", assignments.Verify)
		api.GET("/logs/:date", diagnostics.Logs)
		api.GET("/warnings/:date", diagnostics.Warnings)
		api.GET("/teachers", teachers.List)
		api.GET("/substitutes", teachers.Substitutes)

		if exports != nil {
			exportHandler := handler.NewExportHandler(exports)
			api.POST("/exports", exportHandler.Create)
			api.GET("/exports/:id/status", exportHandler.Status)
			api.GET("/export/:token", exportHandler.Download)
		}
		if history != nil {
			api.GET("/runs", handler.NewHistoryHandler(history).List)
		}
	}

	return r
}
