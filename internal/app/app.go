package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ritual-service/internal/config"
	"ritual-service/internal/infrastructure/catalog"
	cronpkg "ritual-service/internal/infrastructure/cron"
	infradb "ritual-service/internal/infrastructure/db"
	"ritual-service/internal/infrastructure/kafka"
	"ritual-service/internal/infrastructure/postgres"
	infraredis "ritual-service/internal/infrastructure/redis"
	"ritual-service/internal/service"
	transport "ritual-service/internal/transport/http"
	"ritual-service/internal/transport/http/middleware"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// App represents the application
type App struct {
	config       *config.Config
	httpServer   *http.Server
	lapseChecker *cronpkg.StreakLapseChecker
	dbPool       *pgxpool.Pool
	redisClient  *goredis.Client
	producer     *kafka.Producer
}

// New creates a new application
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	setupLogging(&cfg.Logging)
	logrus.Info("configuration loaded")

	ctx := context.Background()
	dbPool, err := infradb.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	logrus.Info("connected to PostgreSQL")

	// Activity catalog: file when configured, compiled-in defaults otherwise.
	var cat *catalog.Catalog
	if cfg.Engine.CatalogPath != "" {
		cat, err = catalog.Load(cfg.Engine.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load activity catalog: %w", err)
		}
		logrus.Infof("loaded activity catalog with %d activities", cat.Len())
	} else {
		cat = catalog.Default()
		logrus.Infof("using built-in activity catalog with %d activities", cat.Len())
	}

	// Initialize repositories
	assignmentRepo := postgres.NewAssignmentRepository(dbPool)
	completionRepo := postgres.NewCompletionRepository(dbPool)
	journalRepo := postgres.NewJournalRepository(dbPool)
	progressionRepo := postgres.NewProgressionRepository(dbPool)

	opts := service.Options{
		Gate: service.QualityGate{
			MinEngagementSeconds: cfg.Engine.MinEngagementSeconds,
			MinReflectionChars:   cfg.Engine.MinReflectionChars,
		},
		PremiumDailyActivities: cfg.Engine.PremiumDailyActivities,
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient = goredis.NewClient(&goredis.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		opts.Cache = infraredis.NewAssignmentCache(redisClient)
		logrus.Info("connected to Redis, assignment cache enabled")
	}

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(&cfg.Kafka)
		opts.Events = producer
		logrus.Info("Kafka producer initialized")
	}

	ritualService := service.NewRitualService(cat, assignmentRepo, completionRepo, journalRepo, progressionRepo, opts)
	logrus.Info("services initialized")

	var lapseChecker *cronpkg.StreakLapseChecker
	if cfg.Scheduler.Enabled {
		lapseChecker = cronpkg.NewStreakLapseChecker(progressionRepo, cfg.Scheduler.CheckInterval)
		logrus.Info("streak lapse checker initialized")
	} else {
		logrus.Info("streak lapse checker is disabled in configuration")
	}

	ritualHandler := transport.NewRitualHandler(ritualService)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, cfg.JWT.Issuer)
	router := transport.NewRouter(ritualHandler, authMiddleware, cfg.HTTP.RatePerMinute)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &App{
		config:       cfg,
		httpServer:   httpServer,
		lapseChecker: lapseChecker,
		dbPool:       dbPool,
		redisClient:  redisClient,
		producer:     producer,
	}, nil
}

// Run starts the application
func (a *App) Run() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	if a.lapseChecker != nil {
		if err := a.lapseChecker.Start(); err != nil {
			return fmt.Errorf("failed to start streak lapse checker: %w", err)
		}
	}

	middleware.CleanupVisitors()

	go func() {
		logrus.Infof("%s listening on %s", a.config.Service.Name, a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("HTTP server error")
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.HTTP.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP server shutdown failed")
	}

	if a.lapseChecker != nil {
		a.lapseChecker.Stop()
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			logrus.WithError(err).Warn("Kafka producer close failed")
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			logrus.WithError(err).Warn("Redis client close failed")
		}
	}

	a.dbPool.Close()

	logrus.Info("shutdown complete")
	return nil
}

func setupLogging(cfg *config.LoggingConfig) {
	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
