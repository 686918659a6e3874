package debug

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithDebug(t *testing.T) {
	assert.True(t, IsEnabled(WithDebug(context.Background(), true)))
	assert.False(t, IsEnabled(WithDebug(context.Background(), false)))
	assert.False(t, IsEnabled(context.Background()))
}

func TestFromEnv(t *testing.T) {
	for value, want := range map[string]bool{"1": true, "TRUE": true, " on ": true, "0": false, "": false, "nope": false} {
		t.Setenv(EnvVar, value)
		assert.Equal(t, want, FromEnv(), "value %q", value)
	}
}

func TestSetupLoggerLevels(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	logger := SetupLoggerTo(&buf, false)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, slog.Default().Enabled(context.Background(), slog.LevelWarn))

	logger.Warn("query warning", "warning", "deprecated")
	assert.Contains(t, buf.String(), "query warning")
	assert.Contains(t, buf.String(), "warning=deprecated")

	logger = SetupLoggerTo(&buf, true)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelDebug))
}
