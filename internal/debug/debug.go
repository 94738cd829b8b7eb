// Package debug provides the daemon's structured logging: a slog.Logger
// backed by a colorless tint text handler for interactive runs and a plain JSON
// handler when writing to the rotated log file.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lmittmann/tint"
)

// EnableDebug is a build-time flag, set via
// go build -ldflags "-X github.com/standardbeagle/langd/internal/debug.EnableDebug=true"
var EnableDebug = "false"

// PipeMode marks that this process is serving the framed-pipe transport on
// its own stdio. Debug output must never reach stdout/stderr in that mode,
// since the pipe client reads raw frames there.
var PipeMode = false

var (
	mu      sync.Mutex
	handler slog.Handler
	logFile *os.File
)

// SetPipeMode toggles PipeMode.
func SetPipeMode(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	PipeMode = enabled
}

// SetDebugOutput points debug logging at w using a tint text handler with
// color disabled. Passing nil disables output.
func SetDebugOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		handler = nil
		return
	}
	handler = tint.NewHandler(w, &tint.Options{NoColor: true, Level: slog.LevelDebug})
}

// InitDebugLogFile opens the daemon's rotated log file, renaming any
// existing one to ".old" first, and switches logging to a JSON handler
// writing to it. Returns the log path. Call CloseDebugLog when done.
func InitDebugLogFile() (string, error) {
	mu.Lock()
	defer mu.Unlock()

	logDir := filepath.Join(os.TempDir(), "langd-debug-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("create debug log directory: %w", err)
	}

	logPath := filepath.Join(logDir, "daemon.log")
	if _, err := os.Stat(logPath); err == nil {
		_ = os.Rename(logPath, logPath+".old")
	}

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return "", fmt.Errorf("create debug log file: %w", err)
	}

	logFile = file
	handler = slog.NewJSONHandler(file, &slog.HandlerOptions{Level: slog.LevelDebug})
	return logPath, nil
}

// CloseDebugLog closes the log file opened by InitDebugLogFile, if any.
func CloseDebugLog() error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		err := logFile.Close()
		logFile = nil
		handler = nil
		return err
	}
	return nil
}

// IsDebugEnabled reports whether debug logging should fire. Always false
// in PipeMode, regardless of EnableDebug or $DEBUG.
func IsDebugEnabled() bool {
	if PipeMode {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	if v := os.Getenv("DEBUG"); v == "1" || v == "true" {
		return true
	}
	return false
}

// Logger returns a *slog.Logger backed by the package's current handler,
// or nil if no output has been configured (SetDebugOutput/InitDebugLogFile
// were never called). Lets collaborators the daemon constructs — the
// filesystem watcher, for one — share the same destination component
// logging uses, rather than each owning its own file handle.
func Logger() *slog.Logger {
	return logger()
}

func logger() *slog.Logger {
	mu.Lock()
	h := handler
	mu.Unlock()
	if h == nil {
		return nil
	}
	return slog.New(h)
}

// Log emits a debug-level record tagged with component, when enabled.
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	l := logger()
	if l == nil {
		return
	}
	l.Debug(fmt.Sprintf(format, args...), slog.String("component", component))
}

// LogIndexing logs backlog/parse-pipeline activity.
func LogIndexing(format string, args ...interface{}) {
	Log("index", format, args...)
}

// LogQuery logs query-handler activity (hover, completion, definition, ...).
func LogQuery(format string, args ...interface{}) {
	Log("query", format, args...)
}

// LogTransport logs framed-pipe transport activity.
func LogTransport(format string, args ...interface{}) {
	Log("transport", format, args...)
}

// Fatal records a catastrophic condition and returns an error describing it.
// It never calls os.Exit; callers decide how to terminate.
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !PipeMode {
		if l := logger(); l != nil {
			l.Error(msg, slog.String("component", "fatal"))
		}
	}
	return fmt.Errorf("fatal error: %s", msg)
}

// FatalAndExit records a catastrophic condition and exits. Only safe to call
// from cmd/langd's entry point.
func FatalAndExit(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !PipeMode {
		if l := logger(); l != nil {
			l.Error(msg, slog.String("component", "fatal"))
		}
	}
	os.Exit(1)
}

// CatastrophicError records a system-failure condition without terminating.
// Suppressed in PipeMode so it never corrupts the transport.
func CatastrophicError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if !PipeMode {
		if l := logger(); l != nil {
			l.Error(msg, slog.String("component", "catastrophic"))
		}
	}
}
