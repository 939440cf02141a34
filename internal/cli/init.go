// Package cli holds the start-up steps shared by cmd/salesdash,
// cmd/sales-import and cmd/sales-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"salesdash/internal/backend"
	"salesdash/internal/config"
	"salesdash/internal/log"
)

// SetupLogger builds the process logger from LOG_LEVEL and installs it as the
// slog default.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Level = log.ParseLevel(os.Getenv("LOG_LEVEL"))
	cfg.Component = component
	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads .env for local development. A missing file is fine.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig exits the process when the environment is invalid.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err, log.FieldErrorType, log.ErrorTypeConfiguration)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend opens the configured record store.
func OpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) (*backend.Result, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("invalid backend configuration: %w", err)
	}
	res, err := backend.NewFactory(logger).Open(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("open %s backend: %w", cfg.DataBackend, err)
	}
	return res, nil
}

// MustOpenBackend is OpenBackend for binaries that cannot start without a store.
func MustOpenBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.Result {
	res, err := OpenBackend(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to open backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// GracefulShutdown cancels the returned context on SIGINT or SIGTERM, then
// runs cleanup bounded by timeout. done closes once cleanup has returned.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		finished := make(chan struct{})
		go func() {
			if cleanup != nil {
				cleanup(shutdownCtx)
			}
			close(finished)
		}()

		select {
		case <-finished:
			logger.Info("Shutdown complete")
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled and cleanup is over.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
