package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	t.Run("Should return logger from context when present", func(t *testing.T) {
		expected := NewLogger(TestConfig())
		ctx := ContextWithLogger(t.Context(), expected)

		actual := FromContext(ctx)

		require.NotNil(t, actual)
		assert.Equal(t, expected, actual)
	})

	t.Run("Should return default logger when no logger in context", func(t *testing.T) {
		log := FromContext(t.Context())

		require.NotNil(t, log)
		log.Info("test message from default logger")
	})
}

func TestLogLevel_ToCharmlogLevel(t *testing.T) {
	t.Run("Should convert all log levels to charm log levels correctly", func(t *testing.T) {
		testCases := []struct {
			level    LogLevel
			expected int
		}{
			{DebugLevel, -4},
			{InfoLevel, 0},
			{WarnLevel, 4},
			{ErrorLevel, 8},
			{LogLevel("bogus"), 0},
		}
		for _, tc := range testCases {
			assert.Equal(t, tc.expected, int(tc.level.ToCharmlogLevel()), "level %q", tc.level)
		}
	})
}

func TestLogger_Output(t *testing.T) {
	t.Run("Should write structured keyvals to the configured output", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: DebugLevel, Output: &buf})

		log.Info("endpoint selected", "endpoint", "models/gemini-2.5-flash")

		out := buf.String()
		assert.True(t, strings.Contains(out, "endpoint selected"), "output: %s", out)
		assert.True(t, strings.Contains(out, "models/gemini-2.5-flash"), "output: %s", out)
	})

	t.Run("Should carry With fields into subsequent entries", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewLogger(&Config{Level: DebugLevel, Output: &buf}).With("request_id", "abc123")

		log.Warn("throttling")

		assert.True(t, strings.Contains(buf.String(), "abc123"))
	})
}
