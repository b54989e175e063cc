package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldStatementID = "statement_id"
	FieldRows        = "rows"
	FieldRow         = "row"
	FieldCategory    = "category"
	FieldKeyword     = "keyword"
	FieldDirection   = "direction"
	FieldFile        = "file"
	FieldEventID     = "event_id"
	FieldEventType   = "event_type"
)

// Component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentStore       = "categories"
	ComponentLoader      = "statement"
	ComponentCategorizer = "categorizer"
	ComponentAMQP        = "amqp"
	ComponentCache       = "cache"
	ComponentTrace       = "trace"
	ComponentCLI         = "cli"
)

// Operation names
const (
	OpLoad         = "load"
	OpSave         = "save"
	OpAdd          = "add"
	OpRemove       = "remove"
	OpList         = "list"
	OpUpload       = "upload"
	OpCategorize   = "categorize"
	OpRecategorize = "recategorize"
	OpSummarize    = "summarize"
	OpPublish      = "publish"
	OpConsume      = "consume"
	OpStartup      = "startup"
	OpShutdown     = "shutdown"
)

// LogFields builds slog key/value pairs.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithStatement(id string, rows int) LogFields {
	f[FieldStatementID] = id
	f[FieldRows] = rows
	return f
}

// WithRule adds the category and, when set, the keyword.
func (f LogFields) WithRule(category, keyword string) LogFields {
	f[FieldCategory] = category
	if keyword != "" {
		f[FieldKeyword] = keyword
	}
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts the fields to alternating keys and values for slog.
func (f LogFields) ToSlice() []any {
	out := make([]any, 0, len(f)*2)
	for k, v := range f {
		out = append(out, k, v)
	}
	return out
}
