// Package config holds the engine configuration. There is no ambient global
// config: callers construct (or Load) a Config and pass it to the scheduler.
package config

import (
	"runtime"
	"time"
)

// ResourceThresholds carries advisory resource limits. The engine reports
// against them but does not enforce them.
type ResourceThresholds struct {
	MaxMemoryBytes int64   `mapstructure:"max_memory_bytes"`
	MaxCPUPercent  float64 `mapstructure:"max_cpu_percent"`
}

// Config configures one scheduler instance. Zero values mean "use default".
type Config struct {
	// MaxConcurrency bounds how many detection tasks may be in flight at
	// once. Clamped downward (never raised) to min(NumCPU, 8), floor 2,
	// when an explicit setting exceeds that ceiling.
	MaxConcurrency int `mapstructure:"max_concurrency"`

	// GlobalTimeout is the per-task deadline used when a task doesn't set
	// its own Timeout.
	GlobalTimeout time.Duration `mapstructure:"global_timeout"`

	EnableCaching bool          `mapstructure:"enable_caching"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl"`

	// EnableMonitoring controls whether per-task resource numbers are
	// aggregated into the execution summary.
	EnableMonitoring bool `mapstructure:"enable_monitoring"`

	Thresholds ResourceThresholds `mapstructure:"thresholds"`
}

// Default returns the default engine configuration.
func Default() Config {
	return Config{
		MaxConcurrency:   4,
		GlobalTimeout:    30 * time.Second,
		EnableCaching:    true,
		CacheTTL:         5 * time.Minute,
		EnableMonitoring: true,
	}
}

// Normalize fills zero values from defaults and applies the concurrency
// clamp. Callers get back a config that is safe to run with.
func (c Config) Normalize() Config {
	d := Default()
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = d.MaxConcurrency
	}
	if c.GlobalTimeout <= 0 {
		c.GlobalTimeout = d.GlobalTimeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}

	// Lower, never raise: an explicit setting above the machine's ceiling
	// is pulled down to it.
	ceiling := runtime.NumCPU()
	if ceiling > 8 {
		ceiling = 8
	}
	if ceiling < 2 {
		ceiling = 2
	}
	if c.MaxConcurrency > ceiling {
		c.MaxConcurrency = ceiling
	}

	return c
}
