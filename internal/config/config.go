package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration for metricgate.
type Config struct {
	// WhitelistPath is the pattern source file, one regex per line.
	WhitelistPath string `yaml:"whitelist_path"`

	// BlockedMetricsPath is the log of rejected metric names, recreated on
	// every startup.
	BlockedMetricsPath string `yaml:"blocked_metrics_path"`

	// AllowUnsafePatterns permits pass-through rules such as a bare ".*".
	AllowUnsafePatterns bool `yaml:"allow_unsafe_patterns"`

	// CacheSize bounds the verdict cache; zero keeps it unbounded.
	CacheSize int `yaml:"cache_size"`
}

// Load reads a YAML settings file and produces a runtime Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadBytes(data)
}

// LoadBytes parses YAML settings data and produces a runtime Config.
func LoadBytes(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	cfg.WhitelistPath = expandHome(cfg.WhitelistPath)
	cfg.BlockedMetricsPath = expandHome(cfg.BlockedMetricsPath)
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.WhitelistPath == "" {
		return fmt.Errorf("whitelist_path must not be empty")
	}
	if cfg.BlockedMetricsPath == "" {
		return fmt.Errorf("blocked_metrics_path must not be empty")
	}
	if cfg.CacheSize < 0 {
		return fmt.Errorf("invalid cache_size %d: must be zero or positive", cfg.CacheSize)
	}
	return nil
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// DefaultConfig returns a config with defaults for when no config file is
// given.
func DefaultConfig() *Config {
	return &Config{
		WhitelistPath:      expandHome(DefaultWhitelistPath),
		BlockedMetricsPath: expandHome(DefaultBlockedMetricsPath),
	}
}
