package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"salesdash/internal/amqp"
	"salesdash/internal/cli"
	"salesdash/internal/config"
	"salesdash/internal/core"
	"salesdash/internal/log"
	"salesdash/internal/metrics"
	"salesdash/internal/seed"
	"salesdash/internal/services"
	"salesdash/internal/worker"
)

type options struct {
	fakeN    int
	fakeSeed int64
	feedURL  string
	file     string
}

func main() {
	var opts options
	flag.IntVar(&opts.fakeN, "fake", 0, "generate N synthetic transactions instead of reading a feed")
	flag.Int64Var(&opts.fakeSeed, "seed", time.Now().UnixNano(), "random seed for --fake")
	flag.StringVar(&opts.feedURL, "url", "", "product feed URL (defaults to SEED_URL)")
	flag.StringVar(&opts.file, "file", "", "JSON file of transactions (defaults to SEED_FILE)")
	flag.Parse()

	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentImport)
	cfg := cli.LoadAndValidateConfig(logger)

	os.Exit(run(logger, cfg, opts))
}

// run returns the process exit code once every resource it opened is closed.
func run(logger *log.Logger, cfg *config.Config, opts options) int {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	source, txs, err := load(ctx, cfg, opts)
	if err != nil {
		logger.Error("Failed to load transactions", log.FieldError, err)
		return 1
	}
	logger.Info("Loaded transactions", log.FieldSource, source, log.FieldCount, len(txs),
		"total_price", seed.TotalPrice(txs).StringFixed(2))

	var sink services.BatchSink
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			return 1
		}
		defer client.Close()
		sink = services.NewPublishSink(client)
	} else {
		if !cfg.SQLBackend() {
			logger.Error("Direct import needs a sqlite or postgres backend", log.FieldBackend, cfg.DataBackend)
			return 1
		}
		res, err := cli.OpenBackend(ctx, logger, cfg)
		if err != nil {
			logger.Error("Failed to open backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
			return 1
		}
		defer res.Close()
		sink = worker.NewImportWorker(res.Writer, metrics.New(), logger, cfg.ImportBatchSize)
	}

	result, err := services.NewImportService(sink, cfg.ImportBatchSize, logger).Import(ctx, source, txs)
	if err != nil {
		logger.Error("Import failed", log.FieldError, err, "batches_sent", result.Batches)
		return 1
	}
	fmt.Printf("imported %d transactions in %d batches (run %s)\n", result.Records, result.Batches, result.RunID)
	return 0
}

func load(ctx context.Context, cfg *config.Config, opts options) (string, []core.Transaction, error) {
	feedURL, file := opts.feedURL, opts.file
	switch {
	case opts.fakeN > 0:
		return "fake", seed.Fake(opts.fakeN, opts.fakeSeed, time.Now()), nil
	case file != "" || (feedURL == "" && cfg.SeedFile != ""):
		if file == "" {
			file = cfg.SeedFile
		}
		txs, err := seed.LoadFile(file)
		return file, txs, err
	default:
		if feedURL == "" {
			feedURL = cfg.SeedURL
		}
		if feedURL == "" {
			feedURL = seed.DefaultFeedURL
		}
		txs, err := seed.FetchFeed(ctx, nil, feedURL)
		return feedURL, txs, err
	}
}
