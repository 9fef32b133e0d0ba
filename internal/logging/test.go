package logging

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/arloliu/halo/types"
)

// TestLogger implements types.Logger using testing.T for output.
//
// It also records every entry so tests can assert on diagnostics.
type TestLogger struct {
	t       testing.TB
	mu      sync.Mutex
	entries []string
}

// Compile-time assertion that TestLogger implements Logger.
var _ types.Logger = (*TestLogger)(nil)

// NewTest creates a new test logger that writes to t.
func NewTest(t testing.TB) *TestLogger {
	return &TestLogger{t: t}
}

// Debug logs a debug-level message with optional key-value pairs.
func (l *TestLogger) Debug(msg string, keysAndValues ...any) {
	l.log("DEBUG", msg, keysAndValues)
}

// Info logs an info-level message with optional key-value pairs.
func (l *TestLogger) Info(msg string, keysAndValues ...any) {
	l.log("INFO", msg, keysAndValues)
}

// Warn logs a warning-level message with optional key-value pairs.
func (l *TestLogger) Warn(msg string, keysAndValues ...any) {
	l.log("WARN", msg, keysAndValues)
}

// Error logs an error-level message with optional key-value pairs.
func (l *TestLogger) Error(msg string, keysAndValues ...any) {
	l.log("ERROR", msg, keysAndValues)
}

// Fatal logs a fatal-level message and fails the test.
func (l *TestLogger) Fatal(msg string, keysAndValues ...any) {
	l.log("FATAL", msg, keysAndValues)
	l.t.FailNow()
}

// Entries returns a copy of all recorded entries ("LEVEL: msg k=v ...").
func (l *TestLogger) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.entries))
	copy(out, l.entries)

	return out
}

// Count returns how many recorded entries have the given level and contain substr.
func (l *TestLogger) Count(level, substr string) int {
	count := 0
	for _, e := range l.Entries() {
		if strings.HasPrefix(e, level+":") && strings.Contains(e, substr) {
			count++
		}
	}

	return count
}

func (l *TestLogger) log(level, msg string, keysAndValues []any) {
	entry := fmt.Sprintf("%s: %s %s", level, msg, formatKeyValues(keysAndValues))

	l.mu.Lock()
	l.entries = append(l.entries, entry)
	l.mu.Unlock()

	l.t.Log(entry)
}

// formatKeyValues formats key-value pairs for logging.
func formatKeyValues(keysAndValues []any) string {
	if len(keysAndValues) == 0 {
		return ""
	}

	var sb strings.Builder
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			fmt.Fprintf(&sb, "%v=%v ", keysAndValues[i], keysAndValues[i+1])
		} else {
			fmt.Fprintf(&sb, "%v=<missing> ", keysAndValues[i])
		}
	}

	return strings.TrimSuffix(sb.String(), " ")
}
