package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/brightcart/api/internal/di"
	"github.com/brightcart/api/internal/handlers"
	"github.com/brightcart/api/internal/platform/config"
	"github.com/brightcart/api/internal/platform/idempotency"
	"github.com/brightcart/api/internal/platform/observability"
	"github.com/brightcart/api/internal/platform/requestctx"
	"github.com/brightcart/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = requestctx.WithLogger(ctx, logger)

	buildInfo := services.BuildInfo{Version: cfg.Server.Version, StartedAt: startedAt}
	container, err := di.NewContainer(ctx, cfg,
		di.WithLogger(logger.Named("di")),
		di.WithBuildInfo(buildInfo),
	)
	if err != nil {
		logger.Fatal("failed to initialise dependencies", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := container.Close(closeCtx); err != nil {
			logger.Warn("dependency close error", zap.Error(err))
		}
	}()

	svc := container.Services
	catalogHandlers := handlers.NewCatalogHandlers(container.Catalogs, svc.Search, svc.Resolver)
	cartHandlers := handlers.NewCartHandlers(svc.CartLines)
	adminHandlers := handlers.NewAdminProductHandlers(svc.ProductAdmin)

	projectID := traceProjectID(cfg)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(svc.System),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithRequestTimeout(cfg.Server.RequestTimeout),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPublicMiddlewares(handlers.RateLimitMiddleware(cfg.RateLimits.PublicPerMinute, cfg.RateLimits.PublicBurst)),
		handlers.WithAdminMiddlewares(
			handlers.RateLimitMiddleware(cfg.RateLimits.AdminPerMinute, 0),
			idempotency.Middleware(container.Idempotency, idempotencyOptions(cfg.Admin)...),
		),
		handlers.WithPublicRoutes(catalogHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(
		zap.String("addr", server.Addr),
		zap.String("backend", cfg.Catalog.Backend),
	)
	go func() {
		serverLogger.Info("catalog api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func idempotencyOptions(cfg config.AdminConfig) []idempotency.MiddlewareOption {
	opts := []idempotency.MiddlewareOption{idempotency.WithTTL(cfg.IdempotencyTTL)}
	if cfg.RequireIdemKey {
		opts = append(opts, idempotency.WithRequiredKey())
	}
	return opts
}

func traceProjectID(cfg config.Config) string {
	if id := strings.TrimSpace(cfg.Server.ProjectID); id != "" {
		return id
	}
	return strings.TrimSpace(cfg.Firestore.ProjectID)
}
