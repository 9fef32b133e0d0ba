package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedSlog(level slog.Level) (*SlogLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	handler := slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})

	return NewSlog(slog.New(handler)), buf
}

func TestNewSlog(t *testing.T) {
	logger, _ := newBufferedSlog(slog.LevelDebug)
	require.NotNil(t, logger)
	require.NotNil(t, logger.logger)

	require.NotNil(t, NewSlogDefault().logger)
	require.NotNil(t, NewSlogText(slog.LevelInfo).logger)
}

func TestSlogLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *SlogLogger)
		level string
		kv    string
	}{
		{"debug", func(l *SlogLogger) { l.Debug("halo posted", "direction", "up") }, "level=DEBUG", "direction=up"},
		{"info", func(l *SlogLogger) { l.Info("solver started", "rank", 2) }, "level=INFO", "rank=2"},
		{"warn", func(l *SlogLogger) { l.Warn("slow neighbor", "peer", 3) }, "level=WARN", "peer=3"},
		{"error", func(l *SlogLogger) { l.Error("exchange failed", "iteration", 7) }, "level=ERROR", "iteration=7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferedSlog(slog.LevelDebug)
			tt.log(logger)

			output := buf.String()
			assert.Contains(t, output, tt.level)
			assert.Contains(t, output, tt.kv)
		})
	}
}

func TestSlogLogger_LevelFiltering(t *testing.T) {
	logger, buf := newBufferedSlog(slog.LevelWarn)

	logger.Debug("hidden")
	logger.Info("hidden too")
	require.Empty(t, buf.String())

	logger.Warn("visible")
	require.Contains(t, buf.String(), "visible")
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	require.NotNil(t, logger)

	assert.NotPanics(t, func() {
		logger.Debug("debug", "k", "v")
		logger.Info("info")
		logger.Warn("warn", "k")
		logger.Error("error", "err", nil)
		logger.Fatal("fatal")
	})
}

func TestWithFields(t *testing.T) {
	t.Run("prepends fields", func(t *testing.T) {
		base, buf := newBufferedSlog(slog.LevelDebug)
		logger := WithFields(base, "rank", 3)

		logger.Info("iteration complete", "iteration", 7)

		output := buf.String()
		assert.Contains(t, output, "rank=3 iteration=7")
	})

	t.Run("no fields returns the same logger", func(t *testing.T) {
		base := NewNop()
		require.Same(t, base, WithFields(base))
	})

	t.Run("nesting accumulates", func(t *testing.T) {
		base, buf := newBufferedSlog(slog.LevelDebug)
		logger := WithFields(WithFields(base, "run", "heat"), "rank", 1)

		logger.Warn("late message")
		assert.Contains(t, buf.String(), "run=heat rank=1")
	})
}

func TestTestLogger(t *testing.T) {
	logger := NewTest(t)

	logger.Info("solver started", "rank", 0, "workers", 4)
	logger.Warn("odd keys", "dangling")
	logger.Debug("no fields")

	entries := logger.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "INFO: solver started rank=0 workers=4", entries[0])
	require.Equal(t, "WARN: odd keys dangling=<missing>", entries[1])
	require.Equal(t, 1, logger.Count("INFO", "solver started"))
	require.Equal(t, 0, logger.Count("ERROR", "solver started"))
}
