package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"salesdash/internal/amqp"
	"salesdash/internal/cli"
	"salesdash/internal/log"
	"salesdash/internal/metrics"
	"salesdash/internal/worker"
)

const prefetch = 4

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting sales-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the import worker")
		os.Exit(1)
	}
	if !cfg.SQLBackend() {
		logger.Error("The import worker needs a sqlite or postgres backend", log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	res := cli.MustOpenBackend(context.Background(), logger, cfg)
	defer res.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer client.Close()

	m := metrics.New()
	w := worker.NewImportWorker(res.Writer, m, logger, cfg.ImportBatchSize)

	// Worker metrics on the configured port.
	metricsSrv := &http.Server{Addr: cfg.Addr(), Handler: m.Handler()}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server error", log.FieldError, err)
		}
	}()

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown error", log.FieldError, err)
		}
	})

	if err := client.ConsumeImports(ctx, prefetch, w.HandleImportMessage); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Message consumption failed", log.FieldError, err)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
