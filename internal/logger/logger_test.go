package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestToZapFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		fields []any
		want   []zap.Field
	}{
		{
			name:   "empty",
			fields: nil,
			want:   nil,
		},
		{
			name:   "key value pairs",
			fields: []any{"source", "reed", "count", 3},
			want:   []zap.Field{zap.Any("source", "reed"), zap.Any("count", 3)},
		},
		{
			name:   "zap field passthrough",
			fields: []any{zap.String("source", "reed"), "count", 3},
			want:   []zap.Field{zap.String("source", "reed"), zap.Any("count", 3)},
		},
		{
			name:   "trailing key dropped",
			fields: []any{"source", "reed", "dangling"},
			want:   []zap.Field{zap.Any("source", "reed")},
		},
		{
			name:   "non-string key position",
			fields: []any{42, "source", "reed"},
			want:   []zap.Field{zap.Any("field0", 42), zap.Any("source", "reed")},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, toZapFields(tt.fields))
		})
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"fatal", zapcore.FatalLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getLogLevel(tt.in), tt.in)
	}
}

func TestLoggerFieldsReachEntries(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	log := &Logger{zapLogger: zap.New(core)}

	log.With("component", "store").Info("Opened store", "path", "jobs.db")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "Opened store", entries[0].Message)
	assert.Equal(t, map[string]any{
		"component": "store",
		"path":      "jobs.db",
	}, entries[0].ContextMap())
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		log, err := New(nil)
		require.NoError(t, err)
		assert.NotNil(t, log)
	})

	t.Run("json encoding", func(t *testing.T) {
		t.Parallel()
		log, err := New(&Config{Level: DebugLevel, Encoding: "json"})
		require.NoError(t, err)
		assert.NotNil(t, log)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		t.Parallel()
		_, err := New(&Config{Encoding: "xml"})
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})
}
