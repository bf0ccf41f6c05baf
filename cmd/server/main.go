package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"affilink/internal/config"
	"affilink/internal/handlers"
	"affilink/internal/repository"
	"affilink/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var handler slog.Handler
	if cfg.AppEnv == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	db, err := repository.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	rdb, err := repository.InitRedis(cfg)
	if err != nil {
		logger.Warn("Failed to connect to Redis, link cache disabled", "error", err)
		rdb = nil
	}

	if strings.HasPrefix(cfg.DatabaseURL, "postgres") {
		logger.Info("Running database migrations...")
		if err := repository.RunMigrations(cfg.DatabaseURL, ""); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	store := repository.NewLinkStore(db)
	cache := repository.NewLinkCache(rdb, time.Duration(cfg.CacheTTLMinutes)*time.Minute)

	var geo services.CountryResolver
	mmdb := cfg.GeoProvider == "mmdb"
	var mmdbResolver *services.MMDBResolver
	if mmdb {
		mmdbResolver = services.NewMMDBResolver(cfg, logger)
		geo = mmdbResolver
	} else {
		geo = services.NewHTTPGeoClient(
			cfg.GeoLookupURL,
			cfg.GeoFallbackCountry,
			time.Duration(cfg.GeoTimeoutMS)*time.Millisecond,
			logger,
		)
	}

	auditService := services.NewAuditService(db, logger)
	recorder := services.NewClickRecorder(store, logger)
	linkService := services.NewLinkService(db, cache, auditService)
	programService := services.NewProgramService(db, auditService)
	qrService := services.NewQRService()
	rateLimiter := services.NewIPRateLimiter(5, 10, logger)

	h := handlers.NewHandler(cfg, logger, db, store, cache, linkService, programService, recorder, geo, qrService)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := h.SetupRouter(rateLimiter, "web/templates/*.html")

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go auditService.Start(workerCtx)
	go recorder.Start(workerCtx)
	if mmdb {
		go func() {
			mmdbResolver.Init()
			mmdbResolver.StartUpdater(workerCtx)
		}()
	}
	rateLimiter.StartCleanup(10 * time.Minute)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	workerCancel()
	// Wait for the click and audit workers to finish draining, but never
	// longer than the drain budget.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer drainCancel()
	select {
	case <-recorder.Done():
	case <-drainCtx.Done():
		logger.Warn("click recorder did not drain in time")
	}
	select {
	case <-auditService.Done():
	case <-drainCtx.Done():
		logger.Warn("audit worker did not drain in time")
	}

	logger.Info("Server exiting")
	return nil
}
