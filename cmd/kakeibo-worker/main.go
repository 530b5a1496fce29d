package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"kakeibo/internal/amqp"
	"kakeibo/internal/cli"
	"kakeibo/internal/export"
	applog "kakeibo/internal/log"
	"kakeibo/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)

	logger.Info("Starting kakeibo-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	writer, err := export.NewFromEnv(ctx)
	if err != nil {
		logger.Error("Failed to initialize Sheets exporter", applog.FieldError, err.Error())
		os.Exit(1)
	}
	logger.Info("Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	archiveWorker := worker.NewArchiveWorker(repo, writer, cfg.ExportBatchSize)

	// Drain anything the queue missed while the worker was down.
	if err := archiveWorker.ProcessPending(ctx); err != nil {
		logger.Error("Startup catch-up scan failed", applog.FieldError, err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumePeriodArchived(gctx, func(msg *amqp.PeriodArchivedMessage) error {
			return archiveWorker.HandleArchiveMessage(gctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ExportInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := archiveWorker.ProcessPending(gctx); err != nil {
					logger.Error("Periodic catch-up scan failed", applog.FieldError, err.Error())
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", applog.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Worker shutdown complete")
}
