// Package config provides configuration for the chunkvault-demo CLI. It is
// not imported by the store package itself — the Store's own constructor
// takes plain arguments, keeping the library free of a config/flag
// dependency while this outer surface still gets real configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// StoreConfig holds the settings the demo CLI uses to construct a Store and
// drive it over a sequence of input files.
type StoreConfig struct {
	// Stride is the fixed sub-block size used by the hash index and the
	// head/tail/middle matchers.
	Stride uint32 `mapstructure:"stride"`

	// ChunkSize is the target size of a freshly cut chunk; rounded down to
	// a multiple of Stride by store.New.
	ChunkSize uint32 `mapstructure:"chunk_size"`

	// LogLevel is parsed with zerolog.ParseLevel ("debug", "trace", "info",
	// ...). Defaults to "info".
	LogLevel string `mapstructure:"log_level"`

	// MetricsAddr, if non-empty, is the address the demo CLI serves
	// /metrics on (e.g. ":9090"). Empty disables the metrics server.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// defaults mirror the teacher's pattern of setting viper defaults before
// binding env vars and an optional config file.
func defaults(v *viper.Viper) {
	v.SetDefault("stride", 64)
	v.SetDefault("chunk_size", 4096)
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")
}

// Load reads configuration from, in increasing precedence order: built-in
// defaults, an optional config file at path (skipped entirely if path is
// empty), and environment variables prefixed CHUNKVAULT_.
func Load(path string) (*StoreConfig, error) {
	v := viper.New()
	defaults(v)

	v.SetEnvPrefix("chunkvault")
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg StoreConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
