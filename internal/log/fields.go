package log

import "time"

// Field names shared by every component.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldMonth      = "month"
	FieldSearch     = "search"
	FieldPage       = "page"
	FieldPerPage    = "per_page"
	FieldTotal      = "total"
	FieldBackend    = "backend"
	FieldBatchID    = "batch_id"
	FieldMessageID  = "message_id"
	FieldCount      = "count"
	FieldSource     = "source"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentListing   = "listing"
	ComponentAggregate = "aggregate"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentImport    = "import"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentGRPC      = "grpc"
)

const (
	OpList       = "list"
	OpStatistics = "statistics"
	OpHistogram  = "histogram"
	OpCategories = "categories"
	OpDashboard  = "dashboard"
	OpImport     = "import"
	OpPublish    = "publish"
	OpConsume    = "consume"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields collects attributes for one log record.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	if requestID != "" {
		f[FieldRequestID] = requestID
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithSelection records the month and search that produced a predicate.
func (f LogFields) WithSelection(month, search string) LogFields {
	if month != "" {
		f[FieldMonth] = month
	}
	if search != "" {
		f[FieldSearch] = search
	}
	return f
}

func (f LogFields) WithPaging(page, perPage int, total int64) LogFields {
	f[FieldPage] = page
	f[FieldPerPage] = perPage
	f[FieldTotal] = total
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	if query != "" {
		f[FieldQuery] = query
	}
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(status int, elapsed time.Duration) LogFields {
	f[FieldStatusCode] = status
	f[FieldDuration] = elapsed.Milliseconds()
	f[FieldSuccess] = status < 400
	return f
}

// ToSlice flattens the fields into slog key/value arguments.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
