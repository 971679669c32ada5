package logger

import (
	"context"

	"go.uber.org/zap"
)

// Standard field names for consistent structured logging.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldLoadID     = "load_id"
	FieldRequestID  = "request_id"
	FieldSnapshotID = "snapshot_id"

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldQuery     = "query"
	FieldEndpoint  = "endpoint"

	// Timing
	FieldDurationMS = "duration_ms"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount    = "count"
	FieldBindings = "bindings"
	FieldSubjects = "subjects"
	FieldWidth    = "width"

	// Cohort-specific
	FieldStudy   = "study"
	FieldSubject = "subject"
	FieldMetric  = "metric"
	FieldDate    = "date"
)

// Context keys for propagating logging context
type contextKey string

const (
	loadIDKey    contextKey = "logger_load_id"
	requestIDKey contextKey = "logger_request_id"
	componentKey contextKey = "logger_component"
)

// WithLoadID adds a load ID to the context for logging
func WithLoadID(ctx context.Context, loadID string) context.Context {
	return context.WithValue(ctx, loadIDKey, loadID)
}

// WithRequestID adds a request ID to the context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithComponent adds a component name to the context for logging
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, componentKey, component)
}

// FieldsFromContext extracts logging fields from context.
// Returns key-value pairs suitable for use with Infow/Errorw/etc.
func FieldsFromContext(ctx context.Context) []interface{} {
	var fields []interface{}

	if loadID, ok := ctx.Value(loadIDKey).(string); ok && loadID != "" {
		fields = append(fields, FieldLoadID, loadID)
	}
	if requestID, ok := ctx.Value(requestIDKey).(string); ok && requestID != "" {
		fields = append(fields, FieldRequestID, requestID)
	}
	if component, ok := ctx.Value(componentKey).(string); ok && component != "" {
		fields = append(fields, FieldComponent, component)
	}

	return fields
}

// FromContext returns base with fields extracted from ctx.
// A nil base falls back to the global Logger.
func FromContext(ctx context.Context, base *zap.SugaredLogger) *zap.SugaredLogger {
	if base == nil {
		base = Logger
	}
	fields := FieldsFromContext(ctx)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	catalog := cohort.NewCatalog(endpoint, cohort.WithLogger(logger.ComponentLogger("catalog")))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}
