// Package debug controls diagnostic output. ROADMAP_DEBUG or --verbose turns it on.
package debug

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
)

// EnvVar turns on debug output when set to any non-empty value.
const EnvVar = "ROADMAP_DEBUG"

var (
	mu          sync.Mutex
	enabled     = os.Getenv(EnvVar) != ""
	verboseMode = false
	quietMode   = false
	stderr      io.Writer = os.Stderr
	stdout      io.Writer = os.Stdout
)

// Enabled reports whether debug output is on.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled || verboseMode
}

// SetVerbose enables debug output regardless of the environment.
func SetVerbose(verbose bool) {
	mu.Lock()
	verboseMode = verbose
	mu.Unlock()
}

// SetQuiet suppresses non-essential output.
func SetQuiet(quiet bool) {
	mu.Lock()
	quietMode = quiet
	mu.Unlock()
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	mu.Lock()
	defer mu.Unlock()
	return quietMode
}

// Logf writes to stderr when debug output is on.
func Logf(format string, args ...interface{}) {
	if Enabled() {
		fmt.Fprintf(stderr, format, args...)
	}
}

// PrintNormal prints informational output unless quiet mode is on.
func PrintNormal(format string, args ...interface{}) {
	if !IsQuiet() {
		fmt.Fprintf(stdout, format, args...)
	}
}

// Level is the slog level implied by the current flags: debug when enabled, warn otherwise.
func Level() slog.Level {
	if Enabled() {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewLogger returns a text logger on w at the current level. A nil w means stderr.
func NewLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = stderr
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: Level()}))
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
