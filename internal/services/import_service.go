package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"salesdash/internal/amqp"
	"salesdash/internal/core"
	"salesdash/internal/log"
)

// BatchSink accepts one import batch. The import worker stores batches
// directly; PublishSink forwards them to the message bus.
type BatchSink interface {
	HandleBatch(ctx context.Context, batchID, source string, txs []core.Transaction) error
}

// Publisher is satisfied by *amqp.Client.
type Publisher interface {
	PublishImport(ctx context.Context, msg *amqp.TransactionImportMessage) error
}

// PublishSink turns each batch into one import message.
type PublishSink struct {
	publisher Publisher
}

func NewPublishSink(p Publisher) *PublishSink {
	return &PublishSink{publisher: p}
}

func (s *PublishSink) HandleBatch(ctx context.Context, batchID, source string, txs []core.Transaction) error {
	return s.publisher.PublishImport(ctx, amqp.NewTransactionImportMessage(batchID, source, txs))
}

// ImportResult summarises one import run.
type ImportResult struct {
	RunID   string
	Batches int
	Records int
}

// ImportService splits a record set into batches and hands them to a sink.
type ImportService struct {
	sink      BatchSink
	batchSize int
	logger    *log.Logger
}

func NewImportService(sink BatchSink, batchSize int, logger *log.Logger) *ImportService {
	if batchSize < 1 {
		batchSize = 100
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &ImportService{sink: sink, batchSize: batchSize, logger: logger.WithComponent(log.ComponentImport)}
}

// Import sends txs in order. It stops at the first failing batch and reports
// how far it got.
func (s *ImportService) Import(ctx context.Context, source string, txs []core.Transaction) (ImportResult, error) {
	res := ImportResult{RunID: uuid.NewString()}
	for start := 0; start < len(txs); start += s.batchSize {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		end := min(start+s.batchSize, len(txs))
		batchID := fmt.Sprintf("%s-%04d", res.RunID, res.Batches)
		if err := s.sink.HandleBatch(ctx, batchID, source, txs[start:end]); err != nil {
			s.logger.ErrorContext(ctx, "Import batch failed",
				log.FieldBatchID, batchID, log.FieldSource, source, log.FieldError, err)
			return res, fmt.Errorf("import batch %d: %w", res.Batches, err)
		}
		res.Batches++
		res.Records += end - start
	}

	s.logger.InfoContext(ctx, "Import finished",
		"run_id", res.RunID,
		log.FieldSource, source,
		"batches", res.Batches,
		log.FieldCount, res.Records)
	return res, nil
}
