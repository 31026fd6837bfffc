package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cosmez/respfmt/internal/config"
)

func TestSetupJSONFile(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "debug"
	cfg.LogFormat = "json"
	cfg.LogFile = filepath.Join(t.TempDir(), "respfmt.log")

	log, err := Setup(cfg)
	require.NoError(t, err)
	log.Debug("frame encoded", zap.Int("len", 34))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "frame encoded", entry["msg"])
	assert.Equal(t, float64(34), entry["len"])
	assert.Contains(t, entry, "timestamp")
}

func TestSetupLevelFilters(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "error"
	cfg.LogFile = filepath.Join(t.TempDir(), "respfmt.log")

	log, err := Setup(cfg)
	require.NoError(t, err)
	log.Info("hidden")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestSetupInvalidLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LogLevel = "verbose"
	_, err := Setup(cfg)
	assert.ErrorContains(t, err, "invalid log level")
}
