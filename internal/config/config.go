// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Data     DataConfig               `mapstructure:"data"`
	Trading  TradingConfig            `mapstructure:"trading"`
	Quotes   QuotesConfig             `mapstructure:"quotes"`
	Logging  LoggingConfig            `mapstructure:"logging"`
	Segments map[string]SegmentConfig `mapstructure:"segments"`
}

// DataConfig holds persistence configuration.
type DataConfig struct {
	Dir   string `mapstructure:"dir"`
	Store string `mapstructure:"store"` // "file" or "sqlite"
}

// TradingConfig holds ledger configuration.
type TradingConfig struct {
	FeeRate float64 `mapstructure:"fee_rate"`
}

// QuotesConfig holds quote provider configuration.
type QuotesConfig struct {
	CacheTTLSeconds int `mapstructure:"cache_ttl_seconds"`
	TimeoutSeconds  int `mapstructure:"timeout_seconds"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// SegmentConfig describes one market segment and its seed capital.
type SegmentConfig struct {
	Cash     float64 `mapstructure:"cash"`
	Currency string  `mapstructure:"currency"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/market-radar"
	}
	return filepath.Join(home, ".config", "market-radar")
}

// DefaultSegments returns the segment seeds used when none are configured.
// The two-segment split and starting balances match previously shipped
// releases, so existing trading_engine documents remain loadable.
func DefaultSegments() map[string]SegmentConfig {
	return map[string]SegmentConfig{
		"india":  {Cash: 1000000.0, Currency: "₹"},
		"global": {Cash: 100000.0, Currency: "$"},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	v.SetDefault("data.dir", filepath.Join(configDir, "data"))
	v.SetDefault("data.store", "file")
	v.SetDefault("trading.fee_rate", 0.001)
	v.SetDefault("quotes.cache_ttl_seconds", 60)
	v.SetDefault("quotes.timeout_seconds", 8)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return nil, fmt.Errorf("creating config template: %w", err)
			}
		} else {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	if len(cfg.Segments) == 0 {
		cfg.Segments = DefaultSegments()
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RADAR_DATA_DIR"); v != "" {
		cfg.Data.Dir = v
	}
	if v := os.Getenv("RADAR_STORE"); v != "" {
		cfg.Data.Store = v
	}
	if v := os.Getenv("RADAR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Data.Store != "file" && c.Data.Store != "sqlite" {
		return fmt.Errorf("invalid store backend: %s (must be 'file' or 'sqlite')", c.Data.Store)
	}
	if c.Trading.FeeRate < 0 || c.Trading.FeeRate >= 1 {
		return fmt.Errorf("fee_rate must be in [0, 1)")
	}
	for name, seg := range c.Segments {
		if seg.Cash < 0 {
			return fmt.Errorf("segment %q: starting cash must be non-negative", name)
		}
	}
	return nil
}

// SegmentNames returns the configured segment names in sorted order.
func (c *Config) SegmentNames() []string {
	names := make([]string, 0, len(c.Segments))
	for name := range c.Segments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
