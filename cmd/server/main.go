package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/yovohub/hub/internal/config"
	"github.com/yovohub/hub/internal/database"
	"github.com/yovohub/hub/internal/handlers"
	"github.com/yovohub/hub/internal/logging"
	"github.com/yovohub/hub/internal/services"
	"github.com/yovohub/hub/internal/services/ai"
	"github.com/yovohub/hub/internal/storage"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", logging.Fields{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	level, err := logging.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Unknown LOG_LEVEL; using info", logging.Fields{"value": cfg.Server.LogLevel})
	}
	if cfg.Server.Debug {
		level = logging.LevelDebug
	}
	logger.SetLevel(level)
	logging.SetDefaultLevel(level)

	logger.Info("Starting YŌVO HUB API...", logging.Fields{"env": cfg.Server.Environment})

	logger.Info("Connecting to PostgreSQL", logging.Fields{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	logger.Info("Connecting to Redis", logging.Fields{"addr": cfg.Redis.Addr()})
	redisDB, err := database.NewRedisDB(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	store, err := openStore(context.Background(), cfg.Storage, logger)
	if err != nil {
		return err
	}

	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	aiClient := ai.NewClient(cfg.AI)
	defer aiClient.CloseIdleConnections()
	if cfg.AI.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; suggestions will use fallback templates")
	}
	generator := ai.NewGenerator(aiClient, services.NewAIUsageLog(dbAdapter))

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisAdapter)
	emailService := services.NewEmailService(&cfg.Email)
	missionService := services.NewMissionService(dbAdapter)
	suggestionService := services.NewSuggestionService(dbAdapter, generator)
	badgeService := services.NewBadgeService(dbAdapter)
	miniProjectService := services.NewMiniProjectService(dbAdapter, store, suggestionService, badgeService)

	handler := newRouter(routerDeps{
		cfg:    cfg,
		logger: logger,
		health: handlers.NewHealthHandler(map[string]handlers.HealthChecker{
			"postgres": db,
			"redis":    redisDB,
			"storage":  handlers.HealthCheckFunc(store.Ping),
		}),
		auth:         handlers.NewAuthHandler(userService, authService, emailService, store, cfg.Server.Debug),
		missions:     handlers.NewMissionHandler(missionService),
		ai:           handlers.NewAIHandler(suggestionService),
		miniProjects: handlers.NewMiniProjectHandler(miniProjectService),
		badges:       handlers.NewBadgeHandler(badgeService),
		sessions:     authService,
		redis:        redisDB.Client,
		aiRateLimit:  resolveAIRateLimit(cfg, logger),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// Generation waits on the completion endpoint, so allow well past its timeout.
		WriteTimeout: cfg.AI.Timeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan struct{})
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", logging.Fields{"error": err.Error()})
		}
		close(done)
	}()

	logger.Info("Server listening", logging.Fields{"addr": addr})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}

// openStore connects to the configured bucket, or keeps uploads in memory when
// no endpoint is set.
func openStore(ctx context.Context, cfg config.StorageConfig, logger *logging.Logger) (storage.Store, error) {
	if !cfg.Enabled() {
		logger.Warn("STORAGE_ENDPOINT is not set; uploads are kept in memory and lost on restart")
		return storage.NewMemoryStore(), nil
	}

	logger.Info("Connecting to object storage", logging.Fields{
		"endpoint": cfg.Endpoint,
		"bucket":   cfg.Bucket,
	})
	store, err := storage.NewMinioStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to storage: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("preparing bucket %s: %w", cfg.Bucket, err)
	}
	return store, nil
}

// resolveAIRateLimit returns the per-user hourly generation budget.
func resolveAIRateLimit(cfg *config.Config, logger *logging.Logger) int64 {
	limit := int64(10)
	if cfg.Server.Environment == "development" {
		limit = 100
	}
	switch {
	case cfg.AI.RateLimit > 0:
		limit = cfg.AI.RateLimit
		logger.Info("Using AI rate limit from env", logging.Fields{"limit": limit})
	case cfg.AI.RateLimit < 0:
		logger.Warn("Invalid AI_RATE_LIMIT; using default", logging.Fields{
			"value": strconv.FormatInt(cfg.AI.RateLimit, 10),
			"limit": limit,
		})
	}
	return limit
}
