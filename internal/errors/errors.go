package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for storage failure modes
type ErrorCode string

const (
	// DatabaseFailure is the base storage error code
	DatabaseFailure ErrorCode = "DATABASE_ERROR"
	// NotInitialized indicates a query was issued before the session was ready
	NotInitialized ErrorCode = "NOT_INITIALIZED"
	// InitializationFailed indicates the worker handshake, open or schema step failed
	InitializationFailed ErrorCode = "INITIALIZATION_FAILED"
	// QueryFailed indicates the engine rejected a statement
	QueryFailed ErrorCode = "QUERY_FAILED"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// CheckConfig suggests inspecting a configuration value
	CheckConfig FixActionType = "check-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	Key         string        `json:"key,omitempty"`
}

// DatabaseError is the base error kind for everything the data-access layer
// reports. Initialization and query failures embed it.
type DatabaseError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// NewDatabaseError creates a new base DatabaseError
func NewDatabaseError(code ErrorCode, message string, cause error) *DatabaseError {
	if code == "" {
		code = DatabaseFailure
	}
	return &DatabaseError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *DatabaseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DatabaseError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *DatabaseError) WithDetails(details interface{}) *DatabaseError {
	e.Details = details
	return e
}

// InitializationError reports a failed handshake, open or schema step.
type InitializationError struct {
	*DatabaseError
}

// NewInitializationError creates a new InitializationError wrapping cause
func NewInitializationError(message string, cause error) *InitializationError {
	return &InitializationError{
		DatabaseError: NewDatabaseError(InitializationFailed, message, cause),
	}
}

// As lets errors.As match *DatabaseError for an InitializationError.
func (e *InitializationError) As(target interface{}) bool {
	if t, ok := target.(**DatabaseError); ok {
		*t = e.DatabaseError
		return true
	}
	return false
}

// QueryError reports a statement the engine refused. Query holds the
// originating SQL text.
type QueryError struct {
	*DatabaseError
	Query string `json:"query"`
}

// NewQueryError creates a new QueryError for the given SQL text
func NewQueryError(message, query string, cause error) *QueryError {
	return &QueryError{
		DatabaseError: NewDatabaseError(QueryFailed, message, cause),
		Query:         query,
	}
}

// Error includes the failing SQL so log lines stay self-contained.
func (e *QueryError) Error() string {
	return fmt.Sprintf("%s (query: %s)", e.DatabaseError.Error(), e.Query)
}

// As lets errors.As match *DatabaseError for a QueryError.
func (e *QueryError) As(target interface{}) bool {
	if t, ok := target.(**DatabaseError); ok {
		*t = e.DatabaseError
		return true
	}
	return false
}

// ValidationError represents rejected caller input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "validation error in field '" + e.Field + "': " + e.Message
}

// NewNotInitializedError is returned by the executor when no session handle
// exists yet.
func NewNotInitializedError() *DatabaseError {
	return NewDatabaseError(NotInitialized, "database not initialized", nil)
}

// IsNotInitialized reports whether err carries the NOT_INITIALIZED code
func IsNotInitialized(err error) bool {
	return CodeOf(err) == NotInitialized
}

// CodeOf returns the code of the first DatabaseError in err's chain, or ""
func CodeOf(err error) ErrorCode {
	var dbErr *DatabaseError
	if stderrors.As(err, &dbErr) {
		return dbErr.Code
	}
	return ""
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	NotInitialized: {
		{
			Type:        RunCommand,
			Command:     "recordbook init",
			Safe:        true,
			Description: "Open the database and create the schema",
		},
	},
	InitializationFailed: {
		{
			Type:        CheckConfig,
			Key:         "database.filename",
			Description: "Check that the database location is writable",
		},
		{
			Type:        RunCommand,
			Command:     "recordbook config show",
			Safe:        true,
			Description: "Show the effective configuration",
		},
	},
	QueryFailed: {
		{
			Type:        RunCommand,
			Command:     "recordbook examples",
			Safe:        true,
			Description: "List example queries that match the schema",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
