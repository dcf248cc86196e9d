package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/revgas/gasbot/internal/api/router"
	"github.com/revgas/gasbot/internal/catalog"
	appconfig "github.com/revgas/gasbot/internal/config"
	"github.com/revgas/gasbot/internal/conversation"
	"github.com/revgas/gasbot/internal/customers"
	"github.com/revgas/gasbot/internal/observability/metrics"
	"github.com/revgas/gasbot/internal/orders"
	"github.com/revgas/gasbot/internal/whatsapp"
	"github.com/revgas/gasbot/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting gasbot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := cfg.ValidateProvider(); err != nil {
		logger.Error("invalid provider configuration", "error", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = redisClient.Close() }()
	}

	sender, err := whatsapp.NewClient(cfg.ZAPIBaseURL, cfg.ZAPIInstanceID, cfg.ZAPIToken, cfg.ZAPIClientToken, logger)
	if err != nil {
		logger.Error("failed to build whatsapp client", "error", err)
		os.Exit(1)
	}

	turnMetrics := metrics.NewTurnMetrics(nil)
	llmClient := conversation.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.LLMTimeout, logger)

	service := conversation.NewService(
		conversation.NewStore(db),
		conversation.NewDedupe(redisClient, cfg.DedupeTTL, logger),
		llmClient,
		customers.NewRepository(pool),
		catalog.NewRepository(pool),
		orders.NewRepository(pool),
		sender,
		turnMetrics,
		cfg.HistoryWindow,
		logger,
	)

	webhookHandler := whatsapp.NewHandler(service, turnMetrics, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		WebhookHandler:     webhookHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
