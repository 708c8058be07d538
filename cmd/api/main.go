package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/cors"

	"agencyledger/internal/cache"
	"agencyledger/internal/clock"
	"agencyledger/internal/config"
	"agencyledger/internal/database"
	"agencyledger/internal/logger"
	"agencyledger/internal/router"
	"agencyledger/internal/services"
	"agencyledger/internal/validator"
)

// @title           Agency Ledger API
// @version         1.0
// @description     Installment billing, obligation materialization and financial reporting for agencies.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(database.DefaultMigrationsSource); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Dashboard cache is optional
	var dashboardCache services.Cache
	redisCache, err := cache.Connect(ctx, cfg.RedisAddr, cfg.DashboardCacheTTL)
	if err != nil {
		log.Warnw("dashboard cache unavailable, continuing without it", "error", err)
	} else if redisCache != nil {
		dashboardCache = redisCache
		defer func() { _ = redisCache.Close() }()
	}

	// Initialize services
	db := dbManager.DB()
	clk := clock.Real{}
	activity := services.WithDashboardInvalidation(services.NewActivityService(db), dashboardCache)

	engine := router.New(router.Services{
		Installments: services.NewInstallmentService(db, activity),
		Invoices:     services.NewInvoiceService(db, clk, activity),
		Materializer: services.NewMaterializerService(db, clk, activity),
		Transactions: services.NewTransactionService(db, clk, activity),
		Reporting:    services.NewReportingService(db, clk, services.NewCostTracker(db), dashboardCache, cfg.TopClientsLimit),
		Audit:        services.NewAuditService(db, clk),
		Activity:     activity,
	}, router.Options{
		JWTSecret:  cfg.JWTSecret,
		JobsAPIKey: cfg.JobsAPIKey,
		Clock:      clk,
	})

	if cfg.JobsAPIKey == "" {
		log.Warn("JOBS_API_KEY is not set, job endpoints are disabled")
	}

	handler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Content-Disposition"},
		MaxAge:         300,
	})(engine)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting agencyledger API on port %s", cfg.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
