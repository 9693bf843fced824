package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/leadflowhq/leadflow/internal/analysis"
	"github.com/leadflowhq/leadflow/internal/callsync"
	"github.com/leadflowhq/leadflow/internal/config"
	"github.com/leadflowhq/leadflow/internal/handler"
	"github.com/leadflowhq/leadflow/internal/infra/postgresql"
	"github.com/leadflowhq/leadflow/internal/infra/postgresql/migrations"
	infraredis "github.com/leadflowhq/leadflow/internal/infra/redis"
	"github.com/leadflowhq/leadflow/internal/observability"
	"github.com/leadflowhq/leadflow/internal/repository"
	"github.com/leadflowhq/leadflow/internal/service"
	"github.com/leadflowhq/leadflow/internal/transport"
	"github.com/leadflowhq/leadflow/internal/voiceprov"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("postgres initialization failed", zap.Error(err))
	}

	if err := migrations.Migrate(db); err != nil {
		logger.Fatal("database migrations failed", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("postgres underlying db init failed", zap.Error(err))
	}
	defer sqlDB.Close()

	rdb, err := infraredis.NewRedis(cfg.RedisURL)
	if err != nil {
		logger.Fatal("redis initialization failed", zap.Error(err))
	}
	defer rdb.Close()

	limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.ProviderRatePerSec)
	if err != nil {
		logger.Fatal("rate limiter initialization failed", zap.Error(err))
	}

	metrics := observability.NewMetrics()

	callRepo := repository.NewGormCallRepo(db)
	leadRepo := repository.NewGormLeadRepo(db)
	campaignRepo := repository.NewGormCampaignRepo(db)
	activityRepo := repository.NewGormActivityRepo(db)

	analyzer, err := analysis.NewHTTPAnalyzer(cfg.AnalysisBaseURL, cfg.AnalysisAPIKey)
	if err != nil {
		logger.Fatal("analysis client initialization failed", zap.Error(err))
	}

	gate, err := callsync.NewAnalysisGate(callRepo, leadRepo, analyzer, logger)
	if err != nil {
		logger.Fatal("analysis gate initialization failed", zap.Error(err))
	}

	updater, err := callsync.NewCallUpdater(callRepo, activityRepo, gate, logger)
	if err != nil {
		logger.Fatal("call updater initialization failed", zap.Error(err))
	}
	updater.SetMetrics(metrics)

	fetcher, err := voiceprov.NewHTTPClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey)
	if err != nil {
		logger.Fatal("voice provider client initialization failed", zap.Error(err))
	}

	reconciler, err := callsync.NewReconciler(
		callRepo,
		fetcher,
		updater,
		limiter,
		time.Duration(cfg.SyncIntervalSec)*time.Second,
		cfg.SyncBatchLimit,
		logger,
	)
	if err != nil {
		logger.Fatal("reconciler initialization failed", zap.Error(err))
	}
	reconciler.SetMetrics(metrics)

	callService, err := service.NewCallService(callRepo, logger)
	if err != nil {
		logger.Fatal("call service initialization failed", zap.Error(err))
	}

	campaignService, err := service.NewCampaignService(campaignRepo, leadRepo, callRepo, logger)
	if err != nil {
		logger.Fatal("campaign service initialization failed", zap.Error(err))
	}
	campaignService.SetMetrics(metrics)

	app := fiber.New(fiber.Config{
		ErrorHandler: transport.ErrorHandler(logger),
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New())
	app.Use(metrics.HTTPMiddleware())

	handler.RegisterHealthRoutes(app, sqlDB, rdb)
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	if err := handler.RegisterWebhookRoutes(app, updater, reconciler, logger, metrics); err != nil {
		logger.Fatal("webhook route registration failed", zap.Error(err))
	}
	if err := handler.RegisterCallRoutes(app, callService); err != nil {
		logger.Fatal("call route registration failed", zap.Error(err))
	}
	if err := handler.RegisterCampaignRoutes(app, campaignService); err != nil {
		logger.Fatal("campaign route registration failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("leadflow api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})

	g.Go(func() error {
		logger.Info("reconciliation poller started",
			zap.Int("intervalSec", cfg.SyncIntervalSec),
			zap.Int("batchLimit", cfg.SyncBatchLimit),
		)
		return reconciler.Start(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil {
		logger.Error("api stopped with error", zap.Error(err))
	}
}
