package log

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
)

type ContextKey string

const LoggerContextKey ContextKey = "logger"

// Middleware stores logger in each request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

// RequestIDMiddleware tags the context logger with the request id.
// It must run inside Middleware and after the request id has been assigned.
func RequestIDMiddleware(extractRequestID func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context())
			if id := extractRequestID(r); id != "" {
				logger = logger.With(FieldRequestID, id)
			}
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the request logger, or one over slog.Default.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: ComponentApp}
}

// StructuredLogger logs the recurring events of the HTTP layer.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogQueryFailure records a store failure behind a query endpoint.
func (sl *StructuredLogger) LogQueryFailure(ctx context.Context, op string, err error, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	errType := ErrorTypeDatabase
	if errors.Is(err, context.DeadlineExceeded) {
		errType = ErrorTypeTimeout
	}
	fields.WithOperation(op).WithError(err).WithErrorType(errType)
	sl.logger.ErrorContext(ctx, "Query failed", fields.ToSlice()...)
}

// LogRejected records a request refused for bad input.
func (sl *StructuredLogger) LogRejected(ctx context.Context, op string, err error, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields.WithOperation(op).WithError(err).WithErrorType(ErrorTypeValidation)
	sl.logger.WarnContext(ctx, "Request rejected", fields.ToSlice()...)
}
