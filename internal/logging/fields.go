package logging

import "github.com/arloliu/halo/types"

// fieldLogger prepends fixed key-value pairs to every entry.
type fieldLogger struct {
	next   types.Logger
	fields []any
}

var _ types.Logger = (*fieldLogger)(nil)

// WithFields returns a logger that adds keysAndValues to every entry written to next.
//
// Example:
//
//	rankLogger := logging.WithFields(logger, "rank", 3)
//	rankLogger.Info("iteration complete", "iteration", 7) // rank=3 iteration=7
func WithFields(next types.Logger, keysAndValues ...any) types.Logger {
	if len(keysAndValues) == 0 {
		return next
	}
	fields := make([]any, len(keysAndValues))
	copy(fields, keysAndValues)

	return &fieldLogger{next: next, fields: fields}
}

func (l *fieldLogger) merge(keysAndValues []any) []any {
	out := make([]any, 0, len(l.fields)+len(keysAndValues))
	out = append(out, l.fields...)

	return append(out, keysAndValues...)
}

func (l *fieldLogger) Debug(msg string, keysAndValues ...any) {
	l.next.Debug(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Info(msg string, keysAndValues ...any) {
	l.next.Info(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Warn(msg string, keysAndValues ...any) {
	l.next.Warn(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Error(msg string, keysAndValues ...any) {
	l.next.Error(msg, l.merge(keysAndValues)...)
}

func (l *fieldLogger) Fatal(msg string, keysAndValues ...any) {
	l.next.Fatal(msg, l.merge(keysAndValues)...)
}
