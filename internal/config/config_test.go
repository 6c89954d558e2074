package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ceiling() int {
	c := runtime.NumCPU()
	if c > 8 {
		c = 8
	}
	if c < 2 {
		c = 2
	}
	return c
}

func TestDefault(t *testing.T) {
	d := Default()
	assert.Equal(t, 4, d.MaxConcurrency)
	assert.Equal(t, 30*time.Second, d.GlobalTimeout)
	assert.True(t, d.EnableCaching)
	assert.Equal(t, 5*time.Minute, d.CacheTTL)
	assert.True(t, d.EnableMonitoring)
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	c := Config{}.Normalize()
	assert.Equal(t, Default().MaxConcurrency, c.MaxConcurrency)
	assert.Equal(t, Default().GlobalTimeout, c.GlobalTimeout)
	assert.Equal(t, Default().CacheTTL, c.CacheTTL)
}

func TestNormalizeClampsDownwardOnly(t *testing.T) {
	// Above the machine ceiling: lowered to it.
	c := Config{MaxConcurrency: 64}.Normalize()
	assert.Equal(t, ceiling(), c.MaxConcurrency)

	// At or below the ceiling: left alone, never raised.
	c = Config{MaxConcurrency: 2}.Normalize()
	assert.Equal(t, 2, c.MaxConcurrency)
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().GlobalTimeout, cfg.GlobalTimeout)
	assert.True(t, cfg.EnableCaching)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "envprobe.yaml")
	content := "max_concurrency: 2\nglobal_timeout: 10s\nenable_caching: false\ncache_ttl: 1m\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MaxConcurrency)
	assert.Equal(t, 10*time.Second, cfg.GlobalTimeout)
	assert.False(t, cfg.EnableCaching)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.EnableMonitoring, "unset fields keep their defaults")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "an explicit config path must exist")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("ENVPROBE_MAX_CONCURRENCY", "3")

	cfg, err := Load("")
	require.NoError(t, err)

	// Load normalizes, so the override is still subject to the machine
	// ceiling on small hosts.
	want := 3
	if c := ceiling(); c < want {
		want = c
	}
	assert.Equal(t, want, cfg.MaxConcurrency)
}

func TestLoadEnvOverrideSurvivesClamp(t *testing.T) {
	t.Setenv("ENVPROBE_MAX_CONCURRENCY", "2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.MaxConcurrency, "2 is within the clamp floor on any host")
}

func TestLoadThresholds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "envprobe.yaml")
	content := "thresholds:\n  max_memory_bytes: 1048576\n  max_cpu_percent: 80\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1048576), cfg.Thresholds.MaxMemoryBytes)
	assert.Equal(t, 80.0, cfg.Thresholds.MaxCPUPercent)
}
