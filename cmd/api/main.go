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

	"github.com/mailcomposer/api/internal/handlers"
	"github.com/mailcomposer/api/internal/platform/config"
	"github.com/mailcomposer/api/internal/platform/httpx"
	"github.com/mailcomposer/api/internal/platform/observability"
	pstorage "github.com/mailcomposer/api/internal/platform/storage"
	"github.com/mailcomposer/api/internal/render"
	"github.com/mailcomposer/api/internal/repositories"
	"github.com/mailcomposer/api/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	envValues, err := config.EnvironmentValues()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read environment values: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(observability.LoggerOptions{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)
	buildInfo := buildInfoFromEnv(envValues, cfg, startedAt)

	var closers []func(context.Context)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i](closeCtx)
		}
	}()

	blobStore, closeStore, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialise blob store", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	}
	closers = append(closers, closeStore)

	templateRepo, err := newTemplateRepository(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialise template repository", zap.String("store", cfg.Persistence.Store), zap.Error(err))
	}
	closers = append(closers, func(ctx context.Context) {
		if err := templateRepo.Close(ctx); err != nil {
			logger.Warn("template repository close error", zap.Error(err))
		}
	})

	publisher, closePublisher, err := newTemplatePublisher(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialise pubsub publisher", zap.Error(err))
	}
	closers = append(closers, closePublisher)

	renderOpts := []render.Option{}
	if layout := strings.TrimSpace(cfg.Render.LayoutFile); layout != "" {
		renderOpts = append(renderOpts, render.WithLayoutFile(layout))
	}
	renderer, err := render.New(renderOpts...)
	if err != nil {
		logger.Fatal("failed to initialise renderer", zap.Error(err))
	}

	templateService, err := services.NewTemplateService(services.TemplateServiceDeps{
		Repository:   templateRepo,
		Renderer:     renderer,
		Publisher:    publisher,
		TempDir:      cfg.Render.TempDir,
		DownloadName: cfg.Render.DownloadName,
		Logger:       observability.EventLogger(logger.Named("templates"), "template event"),
	})
	if err != nil {
		logger.Fatal("failed to initialise template service", zap.Error(err))
	}

	imageService, err := services.NewImageService(services.ImageServiceDeps{
		Store:        blobStore,
		Prefix:       cfg.Storage.ImagePrefix,
		MaxBytes:     cfg.Upload.MaxBytes,
		AllowedTypes: cfg.Upload.AllowedTypes,
		Logger:       observability.EventLogger(logger.Named("images"), "image event"),
	})
	if err != nil {
		logger.Fatal("failed to initialise image service", zap.Error(err))
	}

	systemService, err := newSystemService(templateRepo, blobStore, buildInfo)
	if err != nil {
		logger.Warn("health: system service init failed", zap.Error(err))
	}

	uploadRate := cfg.Upload.RatePerMinute
	if !cfg.Upload.RateLimitEnabled {
		uploadRate = 0
	}
	templateHandlers := handlers.NewTemplateHandlers(templateService, imageService,
		handlers.WithUploadLimit(cfg.Upload.MaxBytes),
		handlers.WithUploadRateLimit(uploadRate, time.Minute),
	)

	projectID := cfg.Firebase.ProjectID
	middlewares := []func(http.Handler) http.Handler{
		httpx.CORS(httpx.CORSConfig{AllowOrigins: cfg.CORS.AllowedOrigins}),
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
	}

	healthOpts := []handlers.HealthOption{handlers.WithHealthBuildInfo(buildInfo)}
	if systemService != nil {
		healthOpts = append(healthOpts, handlers.WithHealthSystemService(systemService))
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(healthOpts...)),
		handlers.WithGatewayRoutes(templateHandlers.Routes),
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

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	serverErr := make(chan error, 1)
	go func() {
		serverLogger.Info("composer gateway listening",
			zap.String("storage", cfg.Storage.Backend),
			zap.String("templateStore", cfg.Persistence.Store),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-shutdown:
		logger.Info("shutdown signal received; draining requests")
	case err := <-serverErr:
		logger.Error("http server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(env map[string]string, cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(env["COMPOSER_BUILD_VERSION"])
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(env["COMPOSER_BUILD_COMMIT_SHA"])
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Server.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func newSystemService(repo repositories.TemplateRepository, store pstorage.BlobStore, build services.BuildInfo) (services.SystemService, error) {
	checks := []repositories.DependencyCheck{
		{Name: "templates", Check: repo.Ping},
		{Name: "storage", Timeout: 3 * time.Second, Check: store.Ping},
	}
	healthRepo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: healthRepo,
		Build:            build,
	})
}
