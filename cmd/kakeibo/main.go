package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"kakeibo/internal/amqp"
	"kakeibo/internal/backend"
	"kakeibo/internal/cli"
	apphttp "kakeibo/internal/http"
	applog "kakeibo/internal/log"
	"kakeibo/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateBackend(ctx, backend.Config{
		Type:         backend.BackendType(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
	})
	if err != nil {
		logger.Error("Failed to initialize backend", applog.FieldError, err.Error(), "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", applog.FieldError, err.Error())
			}
		}()
	}

	// Archive notifications are optional: without a broker the worker's
	// periodic scan still picks superseded periods up.
	var publisher services.ArchivePublisher
	if cfg.DataBackend == "sqlite" && cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without archive notifications",
				applog.FieldError, err.Error())
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	budget := services.NewBudgetService(result.Backend, publisher)
	srv := apphttp.NewServer(":"+cfg.Port, budget)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
	})

	fields := applog.NewFields().WithOperation(applog.OpStartup)
	fields["port"] = cfg.Port
	fields["backend"] = cfg.DataBackend
	logger.Info("Starting kakeibo server", fields.ToSlice()...)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
