package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"

	"todo-api/internal/config"
	"todo-api/internal/handler"
	"todo-api/internal/postgres"
	"todo-api/internal/repository"
	"todo-api/internal/service"
	"todo-api/internal/telemetry"
)

func main() {
	// Create a basic logger for startup (before OTel is initialized)
	startupLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		startupLogger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	startupLogger.Info("starting application",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	ctx := context.Background()

	// Initialize OpenTelemetry tracer provider. Exporter problems are
	// warnings: requests must keep working on the local provider.
	tp, err := telemetry.InitTracerProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment)
	if tp == nil {
		startupLogger.Error("failed to initialize tracer provider", slog.Any("error", err))
		os.Exit(1)
	}
	if err != nil {
		startupLogger.Warn("tracing exporter unavailable, using local provider", slog.Any("error", err))
	}
	defer func() {
		if err := tp.Shutdown(ctx); err != nil {
			startupLogger.Error("failed to shutdown tracer provider", slog.Any("error", err))
		}
	}()

	// Initialize OpenTelemetry meter provider
	mp, err := telemetry.InitMeterProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		startupLogger.Warn("metrics exporter unavailable, using local provider", slog.Any("error", err))
	}
	defer func() {
		if err := mp.Shutdown(ctx); err != nil {
			startupLogger.Error("failed to shutdown meter provider", slog.Any("error", err))
		}
	}()

	// Initialize OpenTelemetry logger provider
	lp, logger, err := telemetry.InitLoggerProvider(ctx, cfg.ServiceName, cfg.OTLPEndpoint, cfg.Environment, cfg.LogLevel)
	if err != nil {
		startupLogger.Warn("log exporter unavailable, writing to stdout", slog.Any("error", err))
	}
	defer func() {
		if err := lp.Shutdown(ctx); err != nil {
			startupLogger.Error("failed to shutdown logger provider", slog.Any("error", err))
		}
	}()

	// Open the database pool via the configured credential provider
	creds, err := postgres.NewCredentialProvider(cfg)
	if err != nil {
		logger.Error("failed to create credential provider", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := postgres.NewPool(ctx, cfg, creds)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// Apply schema migrations
	if err := postgres.Migrate(ctx, pool); err != nil {
		logger.Error("failed to apply migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize todo repository and service
	todoRepo := repository.NewPostgresTodoRepository(pool)
	todoService := service.NewTodoService(todoRepo, logger)

	// Create metrics instruments
	meter := otel.Meter(cfg.ServiceName)
	metrics, err := telemetry.NewMetrics(meter, todoRepo.Count)
	if err != nil {
		logger.Error("failed to create metrics", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize handlers
	todoHandler := handler.NewTodoHandler(todoService, logger, metrics, cfg.ServiceName)

	// Create router
	r := chi.NewRouter()

	// Apply standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(middleware.Timeout(60 * time.Second))

	// Propagate correlation/trace ids via headers and logs
	r.Use(telemetry.Correlation)

	// Health check endpoint (excluded from tracing)
	r.Get("/health", todoHandler.Health)

	// API routes
	r.Mount("/todos", todoHandler.Routes())

	// Wrap router with OpenTelemetry HTTP instrumentation
	otelHandler := otelhttp.NewHandler(r, "http-server",
		otelhttp.WithFilter(func(r *http.Request) bool {
			// Skip tracing for health checks
			return r.URL.Path != "/health"
		}),
	)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      otelHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Create context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	// Gracefully shutdown the server
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
	}

	logger.Info("server stopped")
}
