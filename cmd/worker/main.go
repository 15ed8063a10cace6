package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/atlas-retail/atlas-retail/internal/app"
	"github.com/atlas-retail/atlas-retail/internal/customers"
	"github.com/atlas-retail/atlas-retail/internal/inventory"
	"github.com/atlas-retail/atlas-retail/internal/platform/db"
	"github.com/atlas-retail/atlas-retail/internal/sales"
	"github.com/atlas-retail/atlas-retail/internal/shared"
	"github.com/atlas-retail/atlas-retail/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	auditLogger := shared.NewAuditLogger(pool)
	salesRepo := sales.NewRepository(pool)
	customerRepo := customers.NewRepository(pool)
	inventoryRepo := inventory.NewRepository(pool)

	mailer := jobs.NewReceiptMailer(salesRepo, customerRepo, logger)
	scanner := jobs.NewLowStockScanner(inventoryRepo, auditLogger, cfg.LowStockThreshold, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskReceiptEmail, Handler: mailer.Handle},
			{Type: jobs.TaskLowStockScan, Handler: scanner.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "@every 1h", Task: jobs.NewLowStockScanTask()},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
