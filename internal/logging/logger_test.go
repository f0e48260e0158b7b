package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDefaultConfigWritesToStderr(t *testing.T) {
	assert.Equal(t, []string{"stderr"}, DefaultConfig().OutputPaths)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, err := New(Config{Level: tt.level})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nlp.log")

	logger, err := New(Config{Level: "info", OutputPaths: []string{path}})
	require.NoError(t, err)
	For(logger.Logger, "sentiment").Info("model created", zap.String("handle", "sent_1"))
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"model created"`)
	assert.Contains(t, string(data), `"logger":"sentiment"`)
	assert.Contains(t, string(data), `"handle":"sent_1"`)
	assert.Contains(t, string(data), `"task":"sentiment"`)
	assert.Contains(t, string(data), `"timestamp":`)
}

func TestNewDevelopment(t *testing.T) {
	logger, err := New(Config{Level: "debug", Development: true})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestForNamesTaskLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	For(zap.New(core), "ner").Info("model destroyed")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "ner", entries[0].LoggerName)
	assert.Equal(t, "ner", entries[0].ContextMap()["task"])
}

func TestNewDefault(t *testing.T) {
	logger := NewDefault()
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
