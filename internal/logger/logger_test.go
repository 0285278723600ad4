package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// TestParseLogLevel verifies string to zap level conversion, including the fallback.
func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input string
		want  zapcore.Level
		ok    bool
	}{
		{"debug", zapcore.DebugLevel, true},
		{" INFO ", zapcore.InfoLevel, true},
		{"warn", zapcore.WarnLevel, true},
		{"error", zapcore.ErrorLevel, true},
		{"fatal", zapcore.FatalLevel, true},
		{"verbose", zapcore.InfoLevel, false},
		{"", zapcore.InfoLevel, false},
	}

	for _, tc := range cases {
		got, ok := ParseLogLevel(tc.input)
		require.Equal(t, tc.want, got, "input %q", tc.input)
		require.Equal(t, tc.ok, ok, "input %q", tc.input)
	}
}

// TestFromContext_Fallback ensures a bare context yields the global logger.
func TestFromContext_Fallback(t *testing.T) {
	t.Parallel()
	require.Same(t, Logger(), FromContext(context.Background()))
}

// TestToContext_Roundtrip ensures a logger stored in the context is returned as-is.
func TestToContext_Roundtrip(t *testing.T) {
	t.Parallel()

	l := New(nil).Named("test")
	ctx := ToContext(context.Background(), l)
	require.Same(t, l, FromContext(ctx))
}
