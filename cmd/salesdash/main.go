package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"salesdash/internal/cli"
	"salesdash/internal/grpcserver"
	apphttp "salesdash/internal/http"
	"salesdash/internal/log"
	"salesdash/internal/metrics"
	"salesdash/internal/seed"
)

const healthCheckInterval = 15 * time.Second

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	res := cli.MustOpenBackend(context.Background(), logger, cfg)

	// A memory store can be filled from the product feed at start-up.
	if cfg.DataBackend == "memory" && cfg.SeedURL != "" {
		seedCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		txs, err := seed.FetchFeed(seedCtx, nil, cfg.SeedURL)
		cancel()
		if err != nil {
			logger.Error("Failed to fetch seed feed", log.FieldError, err, log.FieldSource, cfg.SeedURL)
			os.Exit(1)
		}
		if _, err := res.Writer.Upsert(context.Background(), txs); err != nil {
			logger.Error("Failed to seed memory store", log.FieldError, err)
			os.Exit(1)
		}
		logger.Info("Seeded memory store from feed", log.FieldCount, len(txs), log.FieldSource, cfg.SeedURL)
	}

	m := metrics.New()
	srv := apphttp.NewServer(apphttp.Options{
		Addr:               cfg.Addr(),
		Store:              res.Reader,
		Logger:             logger,
		Metrics:            m,
		StoreTimeout:       cfg.StoreTimeout,
		CacheTTL:           cfg.CacheTTL,
		CacheSize:          cfg.CacheSize,
		RateLimitRPM:       cfg.RateLimitRPM,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	var grpcSrv *grpcserver.Server
	if cfg.GRPCAddr != "" {
		grpcSrv = grpcserver.New(cfg.GRPCAddr, res.Reader, logger)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if grpcSrv != nil {
			grpcSrv.Stop()
		}
		if err := res.Close(); err != nil {
			logger.Error("Backend close error", log.FieldError, err)
		}
	})

	if grpcSrv != nil {
		go grpcSrv.Watch(ctx, healthCheckInterval)
		go func() {
			if err := grpcSrv.Start(); err != nil {
				logger.Error("gRPC server error", log.FieldError, err, "addr", cfg.GRPCAddr)
			}
		}()
	}

	logger.Info("Starting salesdash server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
