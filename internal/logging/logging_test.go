package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfig_Levels(t *testing.T) {
	tests := []struct {
		verbosity int
		level     zapcore.Level
		encoding  string
	}{
		{0, zapcore.WarnLevel, "json"},
		{-1, zapcore.WarnLevel, "json"},
		{1, zapcore.InfoLevel, "console"},
		{2, zapcore.DebugLevel, "console"},
		{5, zapcore.DebugLevel, "console"},
	}

	for _, tt := range tests {
		cfg := Config(tt.verbosity)
		assert.Equal(t, tt.level, cfg.Level.Level(), "verbosity %d", tt.verbosity)
		assert.Equal(t, tt.encoding, cfg.Encoding, "verbosity %d", tt.verbosity)
		assert.Equal(t, []string{"stderr"}, cfg.OutputPaths)
	}
}

func TestNew(t *testing.T) {
	logger, err := New(2)
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New(0)
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}
