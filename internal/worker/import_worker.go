package worker

import (
	"context"
	"fmt"

	"salesdash/internal/amqp"
	"salesdash/internal/core"
	"salesdash/internal/log"
	"salesdash/internal/store"
)

// Outcomes reported to the Recorder.
const (
	OutcomeStored  = "stored"
	OutcomeInvalid = "invalid"
	OutcomeFailed  = "failed"
	OutcomeOK      = "ok"
)

// Recorder receives import counters. *metrics.Metrics satisfies it.
type Recorder interface {
	Imported(outcome string, n int)
	ImportBatch(outcome string)
}

// ImportWorker validates import batches and upserts them into a record store.
type ImportWorker struct {
	writer    store.Writer
	recorder  Recorder
	logger    *log.Logger
	chunkSize int
}

// NewImportWorker writes through w in chunks of at most chunkSize records.
// recorder may be nil.
func NewImportWorker(w store.Writer, recorder Recorder, logger *log.Logger, chunkSize int) *ImportWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	if chunkSize < 1 {
		chunkSize = 100
	}
	return &ImportWorker{
		writer:    w,
		recorder:  recorder,
		logger:    logger.WithComponent(log.ComponentWorker),
		chunkSize: chunkSize,
	}
}

// HandleImportMessage is the amqp.Handler of the worker binary.
func (w *ImportWorker) HandleImportMessage(ctx context.Context, msg *amqp.TransactionImportMessage) error {
	w.logger.InfoContext(ctx, "Processing import message",
		log.FieldMessageID, msg.MessageID,
		log.FieldBatchID, msg.BatchID,
		log.FieldSource, msg.Source,
		log.FieldCount, len(msg.Transactions))
	return w.HandleBatch(ctx, msg.BatchID, msg.Source, msg.Transactions)
}

// HandleBatch stores the valid records of one batch. Invalid records are
// skipped and counted; a store failure fails the whole batch so it can be
// retried, which is safe because writes are upserts by id.
func (w *ImportWorker) HandleBatch(ctx context.Context, batchID, source string, txs []core.Transaction) error {
	valid := make([]core.Transaction, 0, len(txs))
	invalid := 0
	for _, tx := range txs {
		if err := tx.Validate(); err != nil {
			invalid++
			w.logger.WarnContext(ctx, "Skipping invalid transaction",
				log.FieldBatchID, batchID,
				"transaction_id", tx.ID,
				log.FieldError, err,
				log.FieldErrorType, log.ErrorTypeValidation)
			continue
		}
		valid = append(valid, tx)
	}

	stored := 0
	for start := 0; start < len(valid); start += w.chunkSize {
		end := min(start+w.chunkSize, len(valid))
		n, err := w.writer.Upsert(ctx, valid[start:end])
		stored += n
		if err != nil {
			w.record(OutcomeFailed, len(valid)-stored)
			w.recordBatch(OutcomeFailed)
			return fmt.Errorf("upsert batch %s: %w", batchID, err)
		}
	}

	w.record(OutcomeStored, stored)
	w.record(OutcomeInvalid, invalid)
	w.recordBatch(OutcomeOK)

	w.logger.InfoContext(ctx, "Import batch stored",
		log.FieldBatchID, batchID,
		log.FieldSource, source,
		"stored", stored,
		"invalid", invalid)
	return nil
}

func (w *ImportWorker) record(outcome string, n int) {
	if w.recorder != nil && n > 0 {
		w.recorder.Imported(outcome, n)
	}
}

func (w *ImportWorker) recordBatch(outcome string) {
	if w.recorder != nil {
		w.recorder.ImportBatch(outcome)
	}
}
