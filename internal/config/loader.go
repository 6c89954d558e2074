package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the given file path, merged over defaults.
// An empty path loads defaults plus environment overrides only; a missing
// file at an explicit path is an error. Environment variables use the
// ENVPROBE_ prefix (e.g. ENVPROBE_MAX_CONCURRENCY).
func Load(path string) (Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("max_concurrency", d.MaxConcurrency)
	v.SetDefault("global_timeout", d.GlobalTimeout)
	v.SetDefault("enable_caching", d.EnableCaching)
	v.SetDefault("cache_ttl", d.CacheTTL)
	v.SetDefault("enable_monitoring", d.EnableMonitoring)
	v.SetDefault("thresholds.max_memory_bytes", int64(0))
	v.SetDefault("thresholds.max_cpu_percent", float64(0))

	v.SetEnvPrefix("ENVPROBE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	// Viper's default decode hooks already parse "30s"-style duration
	// strings into time.Duration fields.
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	return cfg.Normalize(), nil
}
