package logging

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	for _, format := range []string{"", FormatJSON, FormatConsole} {
		l, err := New("debug", format)
		require.NoError(t, err, format)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel))
	}

	l, err := New("", "")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))

	_, err = New("info", "xml")
	assert.EqualError(t, err, "invalid log format 'xml', must be one of [json, console]")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"", zapcore.InfoLevel},
		{"debug", zapcore.DebugLevel},
		{"WARN", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	for _, bad := range []string{"verbose", "panic", "fatal"} {
		_, err := ParseLevel(bad)
		assert.EqualError(t, err, "invalid log level '"+bad+"', must be one of [debug, info, warn, error]")
	}
}

func TestContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	l := zap.NewExample()
	r := IntoRequest(httptest.NewRequest("GET", "/", nil), l)
	assert.Same(t, l, FromRequest(r))
}
