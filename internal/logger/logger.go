// Package logger provides leveled stderr logging for the ragindex CLI and
// servers. Debug and Info lines appear only in verbose mode; warnings and
// errors are always written.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level orders log severities.
type Level int

// Log levels, least severe first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelTags = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var (
	mu         sync.RWMutex
	minLevel   = LevelWarn
	output     io.Writer = os.Stderr
	timestamps bool
	now        = time.Now
)

// SetVerbose lowers the threshold to Debug, or restores it to Warn.
func SetVerbose(v bool) {
	if v {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelWarn)
	}
}

// IsVerbose returns true if debug messages are printed.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return minLevel <= LevelDebug
}

// SetLevel sets the minimum level written.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = l
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetTimestamps prefixes every line with an RFC 3339 timestamp.
// Long-running servers enable this; one-shot commands do not.
func SetTimestamps(on bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = on
}

func logf(l Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if l < minLevel {
		return
	}
	if timestamps {
		fmt.Fprintf(output, "%s ", now().UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(output, "["+levelTags[l]+"] "+format+"\n", args...)
}

// Debug traces pipeline internals.
func Debug(format string, args ...any) { logf(LevelDebug, format, args...) }

// Info reports normal progress.
func Info(format string, args ...any) { logf(LevelInfo, format, args...) }

// Warn reports a recoverable problem.
func Warn(format string, args ...any) { logf(LevelWarn, format, args...) }

// Error reports a failure, including invariant violations.
func Error(format string, args ...any) { logf(LevelError, format, args...) }

// Section prints a section header in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if minLevel <= LevelDebug {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
