package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"salesdash/internal/core"
)

// TransactionImportMessage carries one batch of records to the import worker.
type TransactionImportMessage struct {
	MessageID    string             `json:"messageId"`
	BatchID      string             `json:"batchId"`
	Source       string             `json:"source,omitempty"`
	Transactions []core.Transaction `json:"transactions"`
	Timestamp    time.Time          `json:"timestamp"`
}

// NewTransactionImportMessage stamps a fresh message id on one batch.
func NewTransactionImportMessage(batchID, source string, txs []core.Transaction) *TransactionImportMessage {
	return &TransactionImportMessage{
		MessageID:    uuid.NewString(),
		BatchID:      batchID,
		Source:       source,
		Transactions: txs,
		Timestamp:    time.Now().UTC(),
	}
}

func (m *TransactionImportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionImportMessageFromJSON decodes a message and checks its envelope.
// The records themselves are validated by the worker.
func TransactionImportMessageFromJSON(data []byte) (*TransactionImportMessage, error) {
	var msg TransactionImportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(msg.MessageID); err != nil {
		return nil, fmt.Errorf("invalid message id %q: %w", msg.MessageID, err)
	}
	if msg.BatchID == "" {
		return nil, errors.New("missing batch id")
	}
	return &msg, nil
}
