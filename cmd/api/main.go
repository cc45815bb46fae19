package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/agri-platform/subsidy-matcher/internal/api/handlers"
	"github.com/agri-platform/subsidy-matcher/internal/cache/redis"
	"github.com/agri-platform/subsidy-matcher/internal/catalog"
	"github.com/agri-platform/subsidy-matcher/internal/evaluation"
	"github.com/agri-platform/subsidy-matcher/internal/llm"
	"github.com/agri-platform/subsidy-matcher/internal/matching"
	"github.com/agri-platform/subsidy-matcher/internal/metrics"
	"github.com/agri-platform/subsidy-matcher/internal/middleware/ratelimit"
	"github.com/agri-platform/subsidy-matcher/internal/middleware/security"
	"github.com/agri-platform/subsidy-matcher/internal/middleware/validation"
	"github.com/agri-platform/subsidy-matcher/internal/recommend"
	"github.com/agri-platform/subsidy-matcher/internal/storage/sqlite"
	"github.com/agri-platform/subsidy-matcher/pkg/circuitbreaker"
	"github.com/agri-platform/subsidy-matcher/pkg/config"
	appLogger "github.com/agri-platform/subsidy-matcher/pkg/logger"
	"github.com/agri-platform/subsidy-matcher/pkg/retry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Subsidy Matching API Server",
		zap.String("environment", cfg.Server.Environment),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	metrics.Init()

	ctx := context.Background()
	retryCfg := retry.DefaultConfig()
	retryCfg.Logger = appLogger.GetLogger()

	var store *sqlite.Client
	if cfg.SQLite.Enabled {
		store, err = openStore(ctx, cfg.SQLite.Path, retryCfg)
		if err != nil {
			appLogger.Fatal("Failed to open SQLite store", zap.Error(err))
		}
		defer store.Close()
	}

	cat, err := loadCatalog(ctx, cfg.Catalog, store, retryCfg)
	if err != nil {
		appLogger.Fatal("Failed to load subsidy catalog", zap.Error(err))
	}
	metrics.CatalogSize.Set(float64(cat.Len()))
	appLogger.Info("Subsidy catalog loaded", zap.Int("subsidies", cat.Len()))

	weights := matching.Weights{
		LandSize:   cfg.Matching.Weights.LandSize,
		FarmerType: cfg.Matching.Weights.FarmerType,
		Crops:      cfg.Matching.Weights.Crops,
		District:   cfg.Matching.Weights.District,
	}
	if !weights.Valid() {
		appLogger.Warn("Configured matching weights are invalid, using defaults", zap.Any("weights", weights))
	}
	engine := matching.NewEngine(matching.WithWeights(weights), matching.WithMessages(cfg.Messages))

	scorer, closeBackend := buildScorer(ctx, cfg.AI, engine)
	defer closeBackend()

	orchestrator := recommend.NewOrchestrator(cat, scorer, recommend.Options{
		IncludeIneligible: cfg.Matching.IncludeIneligible,
		TopN:              cfg.Matching.TopN,
		StrictDistricts:   cfg.Matching.StrictDistricts,
		CacheTTL:          cfg.Cache.TTL(),
	})

	checks := map[string]handlers.Check{}
	var feedbackStore handlers.FeedbackStore
	var cacheInvalidator handlers.CacheInvalidator

	if store != nil {
		orchestrator.WithRecorder(store)
		feedbackStore = store
		checks["sqlite"] = store.Ping
	}

	if cfg.Redis.Enabled {
		redisClient, err := retry.DoWithResult(ctx, retryCfg, "redis", func(ctx context.Context) (*redis.Client, error) {
			return redis.NewClient(ctx, cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
		})
		if err != nil {
			appLogger.Warn("Redis unavailable, continuing without response cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			orchestrator.WithCache(redisClient)
			cacheInvalidator = redisClient
			checks["redis"] = redisClient.Ping
		}
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: handlers.ErrorHandler,
	})

	limiter := ratelimit.New(ratelimit.Config{
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:            appLogger.Named("ratelimit"),
	})
	defer limiter.Stop()

	validator, err := validation.Middleware(validation.Config{
		Schemas: map[string]string{
			"/api/v1/subsidy/recommend": validation.RecommendRequestSchema,
			"/api/v1/subsidy/feedback":  validation.FeedbackRequestSchema,
		},
		Logger: appLogger.Named("validation"),
	})
	if err != nil {
		appLogger.Fatal("Failed to build request validator", zap.Error(err))
	}

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.AllowedOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Client-ID",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.Environment == "development",
	}))

	app.Get("/metrics", metrics.MetricsHandler())

	healthHandler := handlers.NewHealthHandler(checks)
	subsidyHandler := handlers.NewSubsidyHandler(orchestrator, feedbackStore, cacheInvalidator)
	if store != nil {
		subsidyHandler.WithEvaluator(evaluation.NewEvaluator(store))
	}
	wsHandler := handlers.NewWebSocketHandler(orchestrator)

	api := app.Group("/api/v1")

	api.Get("/health", healthHandler.Health)
	api.Get("/ready", healthHandler.Ready)

	subsidyHandler.Register(api.Group("/subsidy", limiter.Middleware(), validator))

	api.Use("/ws", wsHandler.Upgrade)
	api.Get("/ws/recommend", websocket.New(wsHandler.HandleConnection))

	app.Use(handlers.NotFound)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}

func openStore(ctx context.Context, path string, retryCfg retry.Config) (*sqlite.Client, error) {
	store, err := sqlite.NewClient(path)
	if err != nil {
		return nil, err
	}

	err = retry.Do(ctx, retryCfg, "sqlite-schema", func(ctx context.Context) error {
		return store.InitSchema(ctx)
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func loadCatalog(ctx context.Context, cfg config.CatalogConfig, store *sqlite.Client, retryCfg retry.Config) (*catalog.Catalog, error) {
	switch cfg.Source {
	case "file":
		return catalog.LoadFile(cfg.Path)
	case "sqlite":
		if store == nil {
			return nil, fmt.Errorf("catalog source sqlite requires sqlite.enabled")
		}
		return retry.DoWithResult(ctx, retryCfg, "sqlite-catalog", store.LoadCatalog)
	default:
		return catalog.SeedCatalog(), nil
	}
}

// buildScorer returns the AI scorer when a provider is configured and the
// rule-based scorer otherwise. A backend that fails to build is logged and
// skipped so the service still answers from rules.
func buildScorer(ctx context.Context, cfg config.AIConfig, engine *matching.Engine) (recommend.Scorer, func()) {
	rules := recommend.NewRuleBasedScorer(engine)
	noop := func() {}

	backend, err := llm.New(ctx, cfg)
	if err != nil {
		appLogger.Error("Failed to create AI backend, using rule-based scoring", zap.Error(err))
		return rules, noop
	}
	if backend == nil {
		appLogger.Info("AI scoring disabled, using rule-based scoring")
		return rules, noop
	}

	breaker := circuitbreaker.New("ai-"+backend.Name(), circuitbreaker.Config{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenTimeout:      time.Duration(cfg.Breaker.OpenSeconds) * time.Second,
		Logger:           appLogger.Named("circuitbreaker"),
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.CircuitState.WithLabelValues(name).Set(float64(to))
		},
	})
	metrics.CircuitState.WithLabelValues(breaker.Name()).Set(float64(circuitbreaker.StateClosed))

	appLogger.Info("AI scoring enabled",
		zap.String("backend", backend.Name()),
		zap.String("model", backend.Model()),
		zap.Duration("timeout", cfg.Timeout()),
	)

	closeBackend := noop
	if closer, ok := backend.(io.Closer); ok {
		closeBackend = func() {
			if err := closer.Close(); err != nil {
				appLogger.Warn("Failed to close AI backend", zap.Error(err))
			}
		}
	}

	return recommend.NewAIScorer(backend, rules, breaker, cfg.Timeout()), closeBackend
}
