package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sy17258/Book-Review-Platform/internal/auth"
	"github.com/sy17258/Book-Review-Platform/internal/config"
	"github.com/sy17258/Book-Review-Platform/internal/event"
	handler "github.com/sy17258/Book-Review-Platform/internal/handler/http"
	"github.com/sy17258/Book-Review-Platform/internal/repository/postgres"
	redisrepo "github.com/sy17258/Book-Review-Platform/internal/repository/redis"
	"github.com/sy17258/Book-Review-Platform/internal/repository/static"
	"github.com/sy17258/Book-Review-Platform/internal/service"
	"github.com/sy17258/Book-Review-Platform/migrations"
	"github.com/sy17258/Book-Review-Platform/pkg/database"
	"github.com/sy17258/Book-Review-Platform/pkg/health"
	pkgkafka "github.com/sy17258/Book-Review-Platform/pkg/kafka"
)

// App wires together all dependencies and runs the catalogue service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	pool       *pgxpool.Pool
	producer   *pkgkafka.Producer
	httpServer *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize PostgreSQL connection pool.
	pgCfg := database.DefaultPostgresConfig()
	pgCfg.Host = cfg.PostgresHost
	pgCfg.Port = cfg.PostgresPort
	pgCfg.User = cfg.PostgresUser
	pgCfg.Password = cfg.PostgresPass
	pgCfg.DBName = cfg.PostgresDB
	pgCfg.SSLMode = cfg.PostgresSSL

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "catalog")

	// Run database migrations. A failure here is logged but not fatal: the
	// read path degrades through the base table and the built-in dataset,
	// and writes surface their own errors.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		logger.Error("migrations failed, continuing degraded",
			slog.String("error", err.Error()),
		)
	} else {
		logger.Info("database migrations completed")
	}

	// Initialize the optional Redis facet cache.
	var facets service.FacetCache
	if cfg.RedisEnabled() {
		redisCfg := database.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		}
		client, redisErr := database.NewRedisClient(ctx, redisCfg)
		if redisErr != nil {
			logger.Warn("redis unavailable, running without facet cache",
				slog.String("error", redisErr.Error()),
			)
		} else {
			facets = redisrepo.NewFacetCache(client, cfg.FacetCacheTTL)
			logger.Info("redis facet cache initialized",
				slog.String("addr", redisCfg.Addr()),
			)
		}
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry)
	bookRepo := postgres.NewBookRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	eventProducer := event.NewProducer(producer, logger)

	catalogService := service.NewCatalogService(bookRepo, reviewRepo, static.NewCatalog(), facets, eventProducer, logger)
	reviewService := service.NewReviewService(reviewRepo, userRepo, eventProducer, logger)
	userService := service.NewUserService(userRepo, jwtManager, eventProducer, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.Register("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	// Kafka is best-effort: a broker outage degrades events, not the service.
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})

	// HTTP router.
	router := handler.NewRouter(
		catalogService,
		reviewService,
		userService,
		jwtManager,
		healthHandler,
		logger,
		handler.CORSConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			Environment:    cfg.Environment,
		},
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		producer:   producer,
		httpServer: httpServer,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: HTTP server first to drain
// in-flight requests, then the Kafka producer, then the PostgreSQL pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
