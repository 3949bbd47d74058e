package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := LoadFromEnv()
	assert.Equal(t, QualityBalanced, cfg.Quality)
	assert.Equal(t, 256, cfg.Kernel.MaxKernels)
	assert.True(t, cfg.Kernel.BenchmarkOnInit)
	assert.Equal(t, CompressionNone, cfg.LEF.Compression)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("LIBETUDE_QUALITY_MODE", "high")
	t.Setenv("LIBETUDE_MAX_KERNELS", "64")
	t.Setenv("LIBETUDE_MONITOR_ENABLED", "true")
	t.Setenv("LIBETUDE_MONITOR_INTERVAL", "5s")

	cfg := LoadFromEnv()
	assert.Equal(t, QualityHigh, cfg.Quality)
	assert.Equal(t, 64, cfg.Kernel.MaxKernels)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Monitor.Interval)
}

func TestApplyYAMLOverlay(t *testing.T) {
	cfg := LoadFromEnv()

	doc := []byte(`
quality: high
kernel:
  max_kernels: 128
lef:
  compression: zstd
  compression_level: 9
monitor:
  enabled: true
  interval: 2s
`)
	require.NoError(t, cfg.ApplyYAML(doc))

	assert.Equal(t, QualityHigh, cfg.Quality)
	assert.Equal(t, 128, cfg.Kernel.MaxKernels)
	assert.Equal(t, CompressionZstd, cfg.LEF.Compression)
	assert.Equal(t, 9, cfg.LEF.CompressionLevel)
	assert.True(t, cfg.Monitor.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Monitor.Interval)
}

func TestApplyYAMLFileMissing(t *testing.T) {
	cfg := LoadFromEnv()
	err := cfg.ApplyYAMLFile("/nonexistent/path/does-not-exist.yaml")
	require.Error(t, err)
}

func TestValidateRejectsUnknownQuality(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.Quality = "ludicrous"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsBadCompression(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.LEF.Compression = "brotli"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroMaxKernels(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.Kernel.MaxKernels = 0
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsMonitorWithoutInterval(t *testing.T) {
	cfg := LoadFromEnv()
	cfg.Monitor.Enabled = true
	cfg.Monitor.Interval = 0
	require.Error(t, cfg.Validate())
}
