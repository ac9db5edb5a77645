// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"quizcost/core/estimation"
	"quizcost/internal/errors"
	"quizcost/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version" yaml:"version"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server" yaml:"server"`

	// Estimation selects the strategy and calibration
	Estimation EstimationConfig `json:"estimation" yaml:"estimation"`

	// Cache contains estimate cache configuration
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Metrics contains Prometheus configuration
	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	// Output contains CLI output configuration
	Output OutputConfig `json:"output" yaml:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr" yaml:"addr"`

	// MaxBodyBytes caps request bodies
	MaxBodyBytes int64 `json:"max_body_bytes" yaml:"max_body_bytes"`

	// ReadTimeoutSeconds bounds reading a request
	ReadTimeoutSeconds int `json:"read_timeout_seconds" yaml:"read_timeout_seconds"`

	// AllowConfigUpdates enables PATCH /config
	AllowConfigUpdates bool `json:"allow_config_updates" yaml:"allow_config_updates"`
}

// EstimationConfig selects how estimates are computed
type EstimationConfig struct {
	// Strategy is the formula generation ("detailed" or "linear")
	Strategy string `json:"strategy" yaml:"strategy"`

	// CalibrationFile is an optional .hcl, .yaml or .json calibration profile
	CalibrationFile string `json:"calibration_file,omitempty" yaml:"calibration_file,omitempty"`

	// Overrides are applied after the calibration file
	Overrides estimation.ConfigUpdate `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

// CacheConfig contains estimate cache settings
type CacheConfig struct {
	// Enabled enables caching
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Size is the maximum number of cached estimates
	Size int `json:"size" yaml:"size"`
}

// MetricsConfig contains Prometheus settings
type MetricsConfig struct {
	// Enabled exposes and records metrics
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path is the scrape path
	Path string `json:"path" yaml:"path"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// DefaultFormat is the default output format
	DefaultFormat string `json:"default_format" yaml:"default_format"`

	// ShowBreakdown shows input/completion breakdown
	ShowBreakdown bool `json:"show_breakdown" yaml:"show_breakdown"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr:               ":8080",
			MaxBodyBytes:       8 << 20, // 8 MiB of document text
			ReadTimeoutSeconds: 15,
			AllowConfigUpdates: true,
		},
		Estimation: EstimationConfig{
			Strategy: estimation.DefaultStrategyName,
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    4096,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Output: OutputConfig{
			DefaultFormat: "cli",
			ShowBreakdown: true,
		},
		Logging: logging.DefaultConfig(),
	}
}

// isYAML reports whether path should be read as YAML
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Load loads configuration from a JSON or YAML file.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Config("failed to read config file", err).WithContext("path", path)
	}

	config := Default()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.Wrap(errors.TypeParsing, "failed to parse config file", err).WithContext("path", path)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if _, err := estimation.StrategyByName(c.Estimation.Strategy); err != nil {
		return errors.Config("invalid estimation.strategy", err)
	}
	if err := c.Estimation.Overrides.Validate(); err != nil {
		return errors.Config("invalid estimation.overrides", err)
	}
	if c.Cache.Enabled && c.Cache.Size <= 0 {
		return errors.Newf(errors.TypeConfig, "invalid cache.size: %d", c.Cache.Size)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.Newf(errors.TypeConfig, "invalid server.max_body_bytes: %d", c.Server.MaxBodyBytes)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.Newf(errors.TypeConfig, "invalid metrics.path: %q", c.Metrics.Path)
	}
	return nil
}

// Save saves configuration to a file (YAML or JSON by extension)
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Global configuration instance
var globalConfig atomic.Pointer[Config]

func init() {
	globalConfig.Store(Default())
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig.Load()
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig.Store(config)
}
