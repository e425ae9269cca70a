package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/javaxhaskell/Real-Estate-Modelling/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeServerConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "server-config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0600))
	return path
}

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := LoadConfig(path)
		require.NoError(t, err)

		assert.Equal(t, constants.DefaultServerAddress, cfg.Address)
		assert.Equal(t, constants.DefaultMaxUploadSizeBytes, cfg.UploadSizeBytes())
		assert.Equal(t, "256 KiB", cfg.MaxUploadSize)
		assert.Equal(t, DefaultRequestTimeout, cfg.Timeout())
		assert.Equal(t, DefaultMaxDraws, cfg.MaxDraws)
		assert.Zero(t, cfg.Workers)
		assert.Empty(t, cfg.Recorder.Driver)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeServerConfig(t, `address: 127.0.0.1:9000
maxUploadSize: 2MiB
requestTimeout: 15s
maxDraws: 5000
workers: 4
logging:
  level: debug
  format: console
  outputFile: /tmp/server.log
recorder:
  driver: sqlite
  path: /tmp/runs.db
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Address)
	assert.Equal(t, int64(2*1024*1024), cfg.UploadSizeBytes())
	assert.Equal(t, 15*time.Second, cfg.Timeout())
	assert.Equal(t, 5000, cfg.MaxDraws)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/tmp/server.log", cfg.Logging.OutputFile)
	assert.Equal(t, "sqlite", cfg.Recorder.Driver)
	assert.Equal(t, "/tmp/runs.db", cfg.Recorder.Path)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := map[string]string{
		"size":     "maxUploadSize: invalid",
		"zeroSize": "maxUploadSize: 0",
		"timeout":  "requestTimeout: soon",
		"draws":    "maxDraws: -1",
		"workers":  "workers: -2",
		"yaml":     "address: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeServerConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestSetUploadSizeBytes(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	cfg.SetUploadSizeBytes(0)
	assert.Equal(t, constants.DefaultMaxUploadSizeBytes, cfg.UploadSizeBytes())

	cfg.SetUploadSizeBytes(4096)
	assert.Equal(t, int64(4096), cfg.UploadSizeBytes())
	assert.Equal(t, "4.0 KiB", cfg.MaxUploadSize)
}

func TestParseSize(t *testing.T) {
	tests := map[string]int64{
		"":          constants.DefaultMaxUploadSizeBytes,
		"1024":      1024,
		"512b":      512,
		"256KiB":    256 * 1024,
		"256k":      256 * 1000,
		"1 MiB":     1024 * 1024,
		"3MB":       3 * 1000 * 1000,
		"  4096   ": 4096,
	}
	for input, expected := range tests {
		got, err := ParseSize(input)
		require.NoError(t, err, input)
		assert.Equal(t, expected, got, input)
	}

	for _, bad := range []string{"abc", "12 parsecs", "0", "4PiB"} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestLoadConfigExample(t *testing.T) {
	cfg, err := LoadConfig("../../server-config.yaml.example")
	require.NoError(t, err)
	assert.Equal(t, constants.DefaultMaxUploadSizeBytes, cfg.UploadSizeBytes())
	assert.Equal(t, "sqlite", cfg.Recorder.Driver)
	assert.Equal(t, "json", cfg.Logging.Format)
}
