package observability

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeu5/rlpath/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestJSONLoggerHonorsLevelAndName(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(config.LoggerConfig{Level: "warn", Format: "json", ServiceName: "rlpath"}, zapcore.AddSync(buf))

	logger.Info("hidden")
	logger.Named("trainer").Warn("shown", zap.Int("epoch", 3))
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"logger":"rlpath.trainer"`)
	assert.Contains(t, out, `"epoch":3`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestBadLevelFallsBackToInfo(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(config.LoggerConfig{Level: "loud", Format: "console"}, zapcore.AddSync(buf))
	logger.Debug("debug line")
	logger.Info("info line")

	assert.NotContains(t, buf.String(), "debug line")
	assert.Contains(t, buf.String(), "info line")
}

func TestLogFileIsWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rlpath.log")
	logger := NewLogger(config.LoggerConfig{Level: "info", Format: "console", LogFile: path, MaxSize: 1}, zapcore.AddSync(&bytes.Buffer{}))
	logger.Info("to file")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
}
