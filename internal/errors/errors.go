// Package errors defines the daemon's error taxonomy: the six structured
// kinds from the error-handling design plus the lower-level file/parse
// errors the cache layers raise internally.
package errors

import (
	"fmt"
	"time"

	"github.com/standardbeagle/langd/internal/ids"
)

// ErrorType identifies the broad category of an error for logging and
// for the wire-level response shape.
type ErrorType string

const (
	// Daemon-level taxonomy (propagation policy differs per kind).
	ErrorTypeInitLoadFailure  ErrorType = "init_load_failure"
	ErrorTypeInitUncaught     ErrorType = "init_uncaught"
	ErrorTypeWrongState       ErrorType = "wrong_state"
	ErrorTypeHandlerUncaught  ErrorType = "handler_uncaught"
	ErrorTypeBacklogFailure   ErrorType = "backlog_failure"
	ErrorTypeTransportFailure ErrorType = "transport_failure"

	// Lower-level kinds raised by the cache/watch layers and wrapped into
	// one of the above before reaching a client.
	ErrorTypeIndexing     ErrorType = "indexing"
	ErrorTypeParse        ErrorType = "parse"
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeConfig       ErrorType = "config"
	ErrorTypeInternal     ErrorType = "internal"
)

// Propagation describes how the daemon loop reacts to an error of this
// kind, per the error-handling design's propagation policy.
type Propagation int

const (
	// PropagateAsResponse bubbles the error out as Response{err}; the
	// daemon stays up and in the same state.
	PropagateAsResponse Propagation = iota
	// PropagateTerminate closes the message queue and ends the loop.
	PropagateTerminate
	// PropagateSwallow logs the error, drops the affected path, and
	// continues; nothing is sent to any client.
	PropagateSwallow
)

// DaemonError is the common shape of the six top-level error kinds: a
// short and a long user-facing message (there is no separate
// medium-verbosity message), a debug
// detail for logs, and whether the condition is something the caller can
// act on (vs. an internal fault).
type DaemonError struct {
	Type         ErrorType
	ShortMessage string // e.g. "Failed to initialize"
	LongMessage  string // e.g. "Failed to initialize: could not read saved state"
	DebugDetail  string // stack trace or underlying error text, never shown to a casual user
	Actionable   bool
	Underlying   error
	Timestamp    time.Time
}

func (e *DaemonError) Error() string {
	if e.LongMessage != "" {
		return e.LongMessage
	}
	return e.ShortMessage
}

func (e *DaemonError) Unwrap() error { return e.Underlying }

// Propagation reports how the daemon loop should react to this error.
func (e *DaemonError) Propagation() Propagation {
	switch e.Type {
	case ErrorTypeTransportFailure:
		return PropagateTerminate
	case ErrorTypeBacklogFailure:
		return PropagateSwallow
	default:
		return PropagateAsResponse
	}
}

func newDaemonError(t ErrorType, short string, err error, actionable bool) *DaemonError {
	long := short
	debug := ""
	if err != nil {
		long = fmt.Sprintf("%s: %v", short, err)
		debug = err.Error()
	}
	return &DaemonError{
		Type:         t,
		ShortMessage: short,
		LongMessage:  long,
		DebugDetail:  debug,
		Actionable:   actionable,
		Underlying:   err,
		Timestamp:    time.Now(),
	}
}

// NewInitLoadFailure wraps a saved-state loader failure. Actionable: the
// user can point at a different saved-state path or let the daemon fall
// back to a full walk.
func NewInitLoadFailure(err error) *DaemonError {
	return newDaemonError(ErrorTypeInitLoadFailure, "Failed to load saved state", err, true)
}

// NewInitUncaught wraps a panic or unexpected failure during Initialize.
// Not actionable from the client's side beyond retrying.
func NewInitUncaught(err error) *DaemonError {
	return newDaemonError(ErrorTypeInitUncaught, "Failed to initialize", err, false)
}

// NewWrongState reports a request received while the daemon is not in a
// state that accepts it (e.g. a query before Initialize completes).
func NewWrongState(requestTag, state string) *DaemonError {
	return newDaemonError(ErrorTypeWrongState, fmt.Sprintf("%s is not valid in state %s", requestTag, state), nil, true)
}

// NewHandlerUncaught wraps a panic or error raised while processing an
// accepted request. The daemon stays up; the debug detail carries the
// stack so a developer can diagnose it from the client side.
func NewHandlerUncaught(requestTag string, err error, stack string) *DaemonError {
	e := newDaemonError(ErrorTypeHandlerUncaught, fmt.Sprintf("%s failed", requestTag), err, false)
	if stack != "" {
		e.DebugDetail = stack
	}
	return e
}

// NewBacklogFailure wraps a failure while processing one changed file in
// the backlog. Swallowed by the daemon loop: logged, the path dropped,
// processing continues with the next path.
func NewBacklogFailure(path string, err error) *DaemonError {
	return newDaemonError(ErrorTypeBacklogFailure, fmt.Sprintf("failed to process %s", path), err, false)
}

// NewTransportFailure wraps a read/write failure on the framed pipe.
// Terminal: the message queue is closed and the daemon loop exits.
func NewTransportFailure(err error) *DaemonError {
	return newDaemonError(ErrorTypeTransportFailure, "transport failed", err, false)
}

// IndexingError represents a failure inside one of the cache layers
// (AST/shallow/folded/linearization/TAST) while processing a file.
type IndexingError struct {
	Type        ErrorType
	FileID      ids.FileID
	FilePath    string
	Operation   string
	Underlying  error
	Timestamp   time.Time
	Recoverable bool
}

// NewIndexingError creates a new indexing error with context.
func NewIndexingError(op string, err error) *IndexingError {
	return &IndexingError{
		Type:       ErrorTypeIndexing,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// WithFile adds file information to the error.
func (e *IndexingError) WithFile(fileID ids.FileID, path string) *IndexingError {
	e.FileID = fileID
	e.FilePath = path
	return e
}

// WithRecoverable marks the error as recoverable.
func (e *IndexingError) WithRecoverable(recoverable bool) *IndexingError {
	e.Recoverable = recoverable
	return e
}

func (e *IndexingError) Error() string {
	if e.FilePath != "" {
		return fmt.Sprintf("%s %s failed for %s: %v", e.Type, e.Operation, e.FilePath, e.Underlying)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Type, e.Operation, e.Underlying)
}

func (e *IndexingError) Unwrap() error { return e.Underlying }

// IsRecoverable checks if the error can be retried.
func (e *IndexingError) IsRecoverable() bool { return e.Recoverable }

// ParseError represents a parse failure in the AST cache.
type ParseError struct {
	Type       ErrorType
	FileID     ids.FileID
	FilePath   string
	Line       int
	Column     int
	Token      string
	Underlying error
	Timestamp  time.Time
}

// NewParseError creates a new parse error.
func NewParseError(fileID ids.FileID, path string, line, column int, token string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		FileID:     fileID,
		FilePath:   path,
		Line:       line,
		Column:     column,
		Token:      token,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d (near token %q): %v",
		e.FilePath, e.Line, e.Column, e.Token, e.Underlying)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// FileError represents a file-related error (not found, too large,
// permission denied) surfaced while reading disk content.
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error.
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileNotFound
	if isPermissionError(err) {
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func isPermissionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return errStr == "permission denied" || errStr == "access denied"
}

func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *FileError) Unwrap() error { return e.Underlying }

// ConfigError represents a malformed configuration value.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error.
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// MultiError aggregates several errors, used when a single operation (e.g.
// validating a whole config file) can fail in more than one place at once.
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error, dropping any nil entries.
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

func (e *MultiError) Unwrap() []error { return e.Errors }
