package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"affiliate-catalog/internal/cache"
	"affiliate-catalog/internal/catalog"
	"affiliate-catalog/internal/config"
	"affiliate-catalog/internal/database"
	"affiliate-catalog/internal/fetch"
	"affiliate-catalog/internal/logger"
	"affiliate-catalog/internal/metrics"
	custommiddleware "affiliate-catalog/internal/middleware"
	"affiliate-catalog/internal/repository"
	"affiliate-catalog/internal/service"
	"affiliate-catalog/internal/transport"
	"affiliate-catalog/internal/worker"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config     *config.Config
	logger     *zap.Logger
	db         database.Service
	redis      *redis.Client
	clicks     service.ClickService
	reconciler *worker.ClickReconcileWorker
}

// NewServer wires repositories, services and handlers onto one router.
// redisClient may be nil, in which case views are not cached and clicks are
// not rate limited.
func NewServer(cfg *config.Config, log *zap.Logger, db database.Service, redisClient *redis.Client) (*Server, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	catalogMetrics := metrics.NewCatalogMetrics(registry)

	router := chi.NewRouter()
	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.ErrorHandlingMiddleware(log))
	router.Use(custommiddleware.LoggingMiddleware(logger.Component(log, "http")))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, !cfg.IsProduction()))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		health := db.Health(r.Context())
		status := http.StatusOK
		if health["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, status, map[string]any{"database": health})
	})
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	// Initialize repositories
	productRepo := repository.NewProductRepository(db.DB())
	clickRepo := repository.NewClickRepository(db.DB())
	settingsRepo := repository.NewSettingsRepository(db.DB())

	views := cache.NewNopViewCache()
	var clickLimiter func(http.Handler) http.Handler
	if redisClient != nil {
		views = cache.NewRedisViewCache(redisClient, cfg.Catalog.CacheTTL, logger.Component(log, "cache"))
		clickLimiter = custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.Clicks.RateLimit,
			Window:            cfg.Clicks.RateWindow,
			KeyPrefix:         "ratelimit:clicks",
		}, log)
	}

	// Initialize the listing pipeline
	engine := catalog.NewEngine()
	coordinator, err := fetch.NewCoordinator(productRepo, engine, fetch.Config{
		PageSize:       cfg.Catalog.PageSize,
		WindowSize:     cfg.Catalog.WindowSize,
		MaxRows:        cfg.Catalog.MaxRows,
		RequestTimeout: cfg.Catalog.RequestTimeout,
	}, logger.Component(log, "fetch"), catalogMetrics)
	if err != nil {
		return nil, fmt.Errorf("failed to configure product fetch: %w", err)
	}

	// Initialize services
	catalogService := service.NewCatalogService(productRepo, coordinator, engine, views, logger.Component(log, "catalog"))
	productService := service.NewProductService(productRepo, views, service.BulkConfig{
		ChunkSize:   cfg.Catalog.BulkChunkSize,
		Concurrency: cfg.Catalog.BulkConcurrency,
	}, logger.Component(log, "products"), catalogMetrics)
	clickService := service.NewClickService(clickRepo, cfg.Clicks.RecordTimeout, logger.Component(log, "clicks"), catalogMetrics)
	settingsService := service.NewSettingsService(settingsRepo, log)

	// Initialize handlers
	transport.NewProductHandler(catalogService, log).RegisterRoutes(router)
	transport.NewCategoryHandler(catalogService, log).RegisterRoutes(router)
	transport.NewSettingsHandler(settingsService, log).RegisterRoutes(router)
	transport.NewClickHandler(clickService, catalogService, log).RegisterRoutes(router, clickLimiter)
	transport.NewAdminHandler(catalogService, productService, clickService, settingsService, logger.Component(log, "admin")).
		RegisterRoutes(router,
			custommiddleware.AuthMiddleware(cfg.JWT.Secret, log),
			custommiddleware.RequireAdmin(log),
		)

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 2 * time.Minute,
		},
		config:     cfg,
		logger:     log,
		db:         db,
		redis:      redisClient,
		clicks:     clickService,
		reconciler: worker.NewClickReconcileWorker(clickService, cfg.Clicks.ReconcileInterval, logger.Component(log, "reconcile")),
	}, nil
}

// StartWorkers runs background jobs until ctx is cancelled
func (s *Server) StartWorkers(ctx context.Context) {
	go s.reconciler.Start(ctx)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Let in-flight click writes land before the pool goes away
	s.clicks.Wait()

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if err := s.db.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
