package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"

	"github.com/atlas-retail/atlas-retail/internal/app"
	"github.com/atlas-retail/atlas-retail/internal/auth"
	"github.com/atlas-retail/atlas-retail/internal/catalog"
	"github.com/atlas-retail/atlas-retail/internal/customers"
	"github.com/atlas-retail/atlas-retail/internal/inventory"
	"github.com/atlas-retail/atlas-retail/internal/observability"
	"github.com/atlas-retail/atlas-retail/internal/platform/cache"
	"github.com/atlas-retail/atlas-retail/internal/platform/db"
	"github.com/atlas-retail/atlas-retail/internal/sales"
	"github.com/atlas-retail/atlas-retail/internal/shared"
	"github.com/atlas-retail/atlas-retail/internal/storefront"
	"github.com/atlas-retail/atlas-retail/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, availability cache degraded", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	validate := validator.New()
	auditLogger := shared.NewAuditLogger(pool)
	idempotencyStore := shared.NewIdempotencyStore(pool)
	metrics := observability.NewMetrics()

	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo)
	authMiddleware := auth.NewMiddleware(authService, logger)

	catalogRepo := catalog.NewRepository(pool)
	catalogService := catalog.NewService(catalogRepo, auditLogger, logger)
	catalogHandler := catalog.NewHandler(logger, catalogService, validate)

	inventoryRepo := inventory.NewRepository(pool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, logger)
	inventoryHandler := inventory.NewHandler(logger, inventoryService, validate)

	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	salesRepo := sales.NewRepository(pool)
	salesService := sales.NewService(salesRepo, auditLogger, jobClient, metrics, logger)
	salesHandler := sales.NewHandler(logger, salesService, validate)

	customerRepo := customers.NewRepository(pool)
	customerService := customers.NewService(customerRepo, logger)

	storefrontService := storefront.NewService(salesService, customerService, idempotencyStore, storefront.Config{
		LocationID: cfg.StoreLocationID,
		OperatorID: cfg.StoreOperatorID,
	}, logger)
	availabilityService := storefront.NewAvailabilityService(inventoryRepo, redisClient, cfg.AvailabilityTTL, logger)
	storefrontHandler := storefront.NewHandler(logger, storefrontService, availabilityService, validate)

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		Pool:              pool,
		AuthMiddleware:    authMiddleware,
		CatalogHandler:    catalogHandler,
		InventoryHandler:  inventoryHandler,
		SalesHandler:      salesHandler,
		StorefrontHandler: storefrontHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
