// Package output provides logging and terminal rendering for the dispatcher.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// logger is the process-wide logger. Scoped loggers derive from it.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
})

// LogConfig controls logger construction.
type LogConfig struct {
	// Verbose selects debug level and forces timestamps and caller reporting.
	Verbose bool

	// Timestamps overrides timestamp reporting when not verbose.
	// Nil means on.
	Timestamps *bool
}

// BoolPtr returns a pointer to b.
func BoolPtr(b bool) *bool {
	return &b
}

// SetupLogging replaces the global logger according to cfg.
func SetupLogging(cfg LogConfig) {
	setupLogging(os.Stderr, cfg)
}

func setupLogging(w io.Writer, cfg LogConfig) {
	level := log.InfoLevel
	timestamps := true
	if cfg.Timestamps != nil {
		timestamps = *cfg.Timestamps
	}
	if cfg.Verbose {
		level = log.DebugLevel
		timestamps = true
	}

	logger = log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: timestamps,
		ReportCaller:    cfg.Verbose,
		TimeFormat:      "15:04:05",
	})
}

// Logger returns the global logger.
func Logger() *log.Logger {
	return logger
}

// RequestLogger returns a logger scoped to one HTTP request.
func RequestLogger(id string) *log.Logger {
	return logger.WithPrefix(fmt.Sprintf("req %s", shortID(id)))
}

// JobLogger returns a logger scoped to one build job.
func JobLogger(fingerprint string) *log.Logger {
	return logger.WithPrefix(fmt.Sprintf("job %s", fingerprint))
}

// WorkerLogger returns a logger for worker process output.
func WorkerLogger(container string) *log.Logger {
	return logger.WithPrefix(fmt.Sprintf("worker %s", container))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// Debug logs a debug message.
func Debug(msg string, keyvals ...any) {
	logger.Debug(msg, keyvals...)
}

// Info logs an info message.
func Info(msg string, keyvals ...any) {
	logger.Info(msg, keyvals...)
}

// Warn logs a warning message.
func Warn(msg string, keyvals ...any) {
	logger.Warn(msg, keyvals...)
}

// Error logs an error message.
func Error(msg string, keyvals ...any) {
	logger.Error(msg, keyvals...)
}

// Print prints a message to stdout without any formatting.
func Print(msg string) {
	os.Stdout.WriteString(msg)
}

// Println prints a message to stdout with a newline.
func Println(msg string) {
	os.Stdout.WriteString(msg + "\n")
}
