package amqp

import (
	"io"

	"salesdash/internal/log"
)

func testLogger() *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = io.Discard
	return log.New(cfg).WithComponent(log.ComponentAMQP)
}
