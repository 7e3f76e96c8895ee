package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"cemas.ai/backend/common/id"
	"cemas.ai/backend/common/llm"
	"cemas.ai/backend/common/logger"
	"cemas.ai/backend/common/metrics"
	"cemas.ai/backend/common/otel"
	"cemas.ai/backend/common/retry"
	"cemas.ai/backend/core/config"
	"cemas.ai/backend/core/db"
	"cemas.ai/backend/internal/assistant"
	"cemas.ai/backend/internal/events"
	"cemas.ai/backend/internal/http/dto"
	"cemas.ai/backend/internal/http/middleware"
	httprouter "cemas.ai/backend/internal/http/router"
	"cemas.ai/backend/internal/service"
	"cemas.ai/backend/internal/store"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeServer)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "cemas backend starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)
	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	database, err := db.New(ctx, cfg.DB)
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.InfoContext(ctx, "database connected")

	var (
		publisher   = events.NewNopPublisher()
		eventReader events.Reader
	)
	if cfg.Redis.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}

		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		slog.InfoContext(ctx, "redis connected", "stream_prefix", cfg.Redis.StreamPrefix)

		publisher = events.NewRedisPublisher(redisClient, cfg.Redis.StreamPrefix, cfg.Redis.MaxLen, slog.Default())
		eventReader = events.NewRedisReader(redisClient, cfg.Redis.StreamPrefix)
	} else {
		slog.InfoContext(ctx, "redis disabled, conversation events will not be published")
	}
	defer publisher.Close()

	var (
		registry *prometheus.Registry
		m        *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m = metrics.New(registry)
	}

	completion, err := llm.New(llm.Config{
		APIKey:         cfg.Completion.APIKey,
		BaseURL:        cfg.Completion.BaseURL,
		Model:          cfg.Completion.Model,
		Temperature:    cfg.Completion.Temperature,
		MaxTokens:      cfg.Completion.MaxTokens,
		RequestTimeout: cfg.Completion.RequestTimeout,
		SystemPrompt:   cfg.Completion.SystemPrompt,
		Metrics:        m,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create completion client", "error", err)
		os.Exit(1)
	}
	completion = llm.WithRetry(completion, retry.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BaseDelay:   cfg.Retry.BaseDelay,
		MaxDelay:    cfg.Retry.MaxDelay,
	})
	slog.InfoContext(ctx, "completion client ready",
		"model", completion.Model(),
		"max_attempts", cfg.Retry.MaxAttempts,
	)

	stores := store.NewStores(database.Queries())

	services := service.NewServices(service.ServicesConfig{
		Stores:       stores,
		TxRunner:     service.NewTxRunner(database),
		Identity:     service.NewWorkOSIdentity(cfg.WorkOS),
		Orchestrator: assistant.NewOrchestrator(stores.Messages(), completion, publisher, m),
		Synthesizer:  assistant.NewSynthesizer(completion, m),
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := dto.RegisterValidators(); err != nil {
		slog.ErrorContext(ctx, "failed to register request validators", "error", err)
		os.Exit(1)
	}

	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go purgeExpiredSessions(purgeCtx, services.Auth(), sessionPurgeInterval)

	router := setupRouter(cfg, services, m, registry, eventReader)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// No WriteTimeout: a reply can span several completion attempts and event streams stay open.
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")
	stopPurge()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

const sessionPurgeInterval = time.Hour

func purgeExpiredSessions(ctx context.Context, auth service.AuthService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := auth.PurgeExpiredSessions(ctx); err != nil && ctx.Err() == nil {
				slog.WarnContext(ctx, "failed to purge expired sessions", "error", err)
			}
		}
	}
}

func setupRouter(
	cfg config.Config,
	services *service.Services,
	m *metrics.Metrics,
	registry *prometheus.Registry,
	eventReader events.Reader,
) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger(m))

	httprouter.SetupRoutes(router, services, httprouter.RouterConfig{
		App:          cfg.App,
		DashboardURL: cfg.DashboardURL,
		IsProduction: cfg.IsProduction(),
		AdminAPIKey:  cfg.AdminAPIKey,
		Registry:     registry,
		EventReader:  eventReader,
	})

	return router
}

const banner = `
 ██████╗███████╗███╗   ███╗ █████╗ ███████╗
██╔════╝██╔════╝████╗ ████║██╔══██╗██╔════╝
██║     █████╗  ██╔████╔██║███████║███████╗
██║     ██╔══╝  ██║╚██╔╝██║██╔══██║╚════██║
╚██████╗███████╗██║ ╚═╝ ██║██║  ██║███████║
 ╚═════╝╚══════╝╚═╝     ╚═╝╚═╝  ╚═╝╚══════╝
`
