package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldKey       = "key"
	FieldCount     = "count"
	FieldEntryID   = "entry_id"
	FieldCategory  = "category"
	FieldAmount    = "amount"
	FieldSource    = "source"
	FieldStatus    = "status"
	FieldHandle    = "handle"
	FieldBytes     = "bytes"
	FieldBackend   = "backend"
	FieldQueue     = "queue"
)

// Components defines standard component names
const (
	ComponentApp        = "app"
	ComponentLedger     = "ledger"
	ComponentCategories = "categories"
	ComponentMirror     = "mirror"
	ComponentStorage    = "storage"
	ComponentBootstrap  = "bootstrap"
	ComponentAMQP       = "amqp"
	ComponentWorker     = "worker"
)

// Operations defines standard operation names
const (
	OpInit    = "init"
	OpAdd     = "add"
	OpRemove  = "remove"
	OpReplace = "replace"
	OpImport  = "import"
	OpPersist = "persist"
	OpExport  = "export"
	OpConnect = "connect"
	OpWrite   = "write"
	OpSync    = "sync"
	OpPublish = "publish"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithKey adds the storage slot field
func (f LogFields) WithKey(key string) LogFields {
	f[FieldKey] = key
	return f
}

// WithCount adds a collection size field
func (f LogFields) WithCount(n int) LogFields {
	f[FieldCount] = n
	return f
}

// WithEntry adds entry-related fields
func (f LogFields) WithEntry(id, category string, amount float64) LogFields {
	f[FieldEntryID] = id
	f[FieldCategory] = category
	f[FieldAmount] = amount
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
