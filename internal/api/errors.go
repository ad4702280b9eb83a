package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/MJE43/jstris-replay-go/internal/engine"
	"github.com/MJE43/jstris-replay-go/internal/randomizer"
	"github.com/MJE43/jstris-replay-go/internal/replay"
	"github.com/MJE43/jstris-replay-go/internal/scan"
	"github.com/MJE43/jstris-replay-go/internal/store"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

const (
	// Input validation errors
	ErrTypeInvalidSeed   = "invalid_seed"
	ErrTypeInvalidReplay = "invalid_replay"
	ErrTypeInvalidParams = "invalid_params"
	ErrTypeValidation    = "validation_error"
	ErrTypeUnsupported   = "unsupported_version"

	// Storage errors
	ErrTypeNotFound = "not_found"
	ErrTypeConflict = "conflict"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryStorage    ErrorCategory = "storage"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeInvalidSeed, ErrTypeInvalidReplay, ErrTypeInvalidParams, ErrTypeValidation, ErrTypeUnsupported:
		return CategoryValidation
	case ErrTypeNotFound, ErrTypeConflict:
		return CategoryStorage
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// ErrorBuilder helps construct structured errors with context
type ErrorBuilder struct {
	errType   string
	message   string
	context   map[string]any
	requestID string
}

// NewError creates a new error builder
func NewError(errType, message string) *ErrorBuilder {
	return &ErrorBuilder{
		errType: errType,
		message: message,
		context: make(map[string]any),
	}
}

// WithContext adds context information to the error
func (eb *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	eb.context[key] = value
	return eb
}

// WithRequestID adds request ID to the error
func (eb *ErrorBuilder) WithRequestID(requestID string) *ErrorBuilder {
	eb.requestID = requestID
	return eb
}

// WithCause records the underlying error message.
func (eb *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	if err != nil {
		eb.context["cause"] = err.Error()
	}
	return eb
}

// Build creates the final EngineError
func (eb *ErrorBuilder) Build() EngineError {
	return EngineError{
		Type:      eb.errType,
		Message:   eb.message,
		Context:   eb.context,
		RequestID: eb.requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// classify maps domain errors onto a status and error type.
func classify(err error) (int, string) {
	var (
		versionErr *replay.VersionError
		bodyErr    *replay.BodyDecodeError
		charErr    *engine.InvalidCharError
		pieceErr   *randomizer.InvalidPieceError
	)
	switch {
	case errors.Is(err, errMissingReplay):
		return http.StatusBadRequest, ErrTypeValidation
	case errors.As(err, &versionErr):
		return http.StatusUnprocessableEntity, ErrTypeUnsupported
	case errors.Is(err, replay.ErrDecompressionFailed), errors.As(err, &bodyErr):
		return http.StatusBadRequest, ErrTypeInvalidReplay
	case errors.Is(err, engine.ErrWrongLength), errors.As(err, &charErr):
		return http.StatusBadRequest, ErrTypeInvalidSeed
	case errors.Is(err, scan.ErrInvalidRange), errors.Is(err, scan.ErrInvalidTarget),
		errors.Is(err, scan.ErrInvalidOp), errors.As(err, &pieceErr):
		return http.StatusBadRequest, ErrTypeInvalidParams
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, ErrTypeNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, ErrTypeConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, ErrTypeTimeout
	default:
		return http.StatusInternalServerError, ErrTypeInternal
	}
}

// ErrorHandler provides centralized error handling with logging
type ErrorHandler struct {
	logger hclog.Logger
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger hclog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// HandleError classifies err and writes the matching response.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var engineErr EngineError
	if errors.As(err, &engineErr) {
		eh.write(w, r, http.StatusBadRequest, engineErr)
		return
	}

	status, errType := classify(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Internal server error"
	}
	engineErr = NewError(errType, message).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		WithCause(err).
		Build()
	eh.write(w, r, status, engineErr)
}

// HandleValidationError handles validation-specific errors
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	engineErr := NewError(ErrTypeValidation, fmt.Sprintf("Validation failed: %s", message)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("field", field).
		WithContext("path", r.URL.Path).
		WithContext("method", r.Method).
		Build()
	eh.write(w, r, http.StatusBadRequest, engineErr)
}

// HandleUnavailable reports a missing dependency such as the database.
func (eh *ErrorHandler) HandleUnavailable(w http.ResponseWriter, r *http.Request, component string) {
	engineErr := NewError(ErrTypeServiceUnavailable, fmt.Sprintf("%s is not configured", component)).
		WithRequestID(middleware.GetReqID(r.Context())).
		WithContext("component", component).
		Build()
	eh.write(w, r, http.StatusServiceUnavailable, engineErr)
}

func (eh *ErrorHandler) write(w http.ResponseWriter, r *http.Request, status int, engineErr EngineError) {
	category := GetErrorCategory(engineErr.Type)
	args := []any{
		"type", engineErr.Type,
		"category", category,
		"status", status,
		"request_id", engineErr.RequestID,
		"method", r.Method,
		"path", r.URL.Path,
	}
	if cause, ok := engineErr.Context["cause"]; ok {
		args = append(args, "cause", cause)
	}
	if status >= http.StatusInternalServerError {
		eh.logger.Error(engineErr.Message, args...)
	} else {
		eh.logger.Warn(engineErr.Message, args...)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.Header().Set("X-Error-Type", engineErr.Type)
	w.Header().Set("X-Error-Category", string(category))
	w.WriteHeader(status)
	if err := jsonEncode(w, engineErr); err != nil {
		eh.logger.Warn("failed to encode error", "error", err)
	}
}

// RecoveryHandler provides panic recovery with structured error logging
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rvr := recover(); rvr != nil {
				if rvr == http.ErrAbortHandler {
					panic(rvr)
				}
				engineErr := NewError(ErrTypeInternal, "Internal server error").
					WithRequestID(middleware.GetReqID(r.Context())).
					WithContext("panic", fmt.Sprintf("%v", rvr)).
					WithContext("path", r.URL.Path).
					WithContext("method", r.Method).
					Build()
				eh.write(w, r, http.StatusInternalServerError, engineErr)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
