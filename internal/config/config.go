// Package config provides runtime configuration for script execution:
// context pool sizing, streaming window bounds and output buffering.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the tunable execution parameters.
type Config struct {
	// InitialPoolSize is the number of evaluation contexts preallocated by
	// the context pool.
	InitialPoolSize int `json:"initial_pool_size" yaml:"initial_pool_size"`
	// MaxPoolSize caps how many released contexts the pool retains.
	MaxPoolSize int `json:"max_pool_size" yaml:"max_pool_size"`
	// StreamWindowSize bounds how many rows of input and output history the
	// streaming executor retains.
	StreamWindowSize int `json:"stream_window_size" yaml:"stream_window_size"`
	// OutputFlushInterval is the CSV output flush cadence in rows.
	OutputFlushInterval int `json:"output_flush_interval" yaml:"output_flush_interval"`
	// PackagePaths lists directories searched for imported packages.
	PackagePaths []string `json:"package_paths" yaml:"package_paths"`
}

// Default configuration values.
const (
	DefaultInitialPoolSize     = 16
	DefaultMaxPoolSize         = 1024
	DefaultStreamWindowSize    = 1000
	DefaultOutputFlushInterval = 100
)

// NewConfig returns a configuration with default values.
func NewConfig() Config {
	return Config{
		InitialPoolSize:     DefaultInitialPoolSize,
		MaxPoolSize:         DefaultMaxPoolSize,
		StreamWindowSize:    DefaultStreamWindowSize,
		OutputFlushInterval: DefaultOutputFlushInterval,
	}
}

// WithDefaults fills unset numeric fields with their defaults.
func (c Config) WithDefaults() Config {
	if c.InitialPoolSize == 0 {
		c.InitialPoolSize = DefaultInitialPoolSize
	}
	if c.MaxPoolSize == 0 {
		c.MaxPoolSize = DefaultMaxPoolSize
	}
	if c.StreamWindowSize == 0 {
		c.StreamWindowSize = DefaultStreamWindowSize
	}
	if c.OutputFlushInterval == 0 {
		c.OutputFlushInterval = DefaultOutputFlushInterval
	}
	return c
}

// Validate returns an error when any field is out of range.
func (c *Config) Validate() error {
	if c.InitialPoolSize < 0 {
		return fmt.Errorf("InitialPoolSize must be non-negative, got %d", c.InitialPoolSize)
	}
	if c.MaxPoolSize <= 0 {
		return fmt.Errorf("MaxPoolSize must be positive, got %d", c.MaxPoolSize)
	}
	if c.InitialPoolSize > c.MaxPoolSize {
		return fmt.Errorf("InitialPoolSize %d exceeds MaxPoolSize %d", c.InitialPoolSize, c.MaxPoolSize)
	}
	if c.StreamWindowSize <= 0 {
		return fmt.Errorf("StreamWindowSize must be positive, got %d", c.StreamWindowSize)
	}
	if c.OutputFlushInterval <= 0 {
		return fmt.Errorf("OutputFlushInterval must be positive, got %d", c.OutputFlushInterval)
	}
	return nil
}

// LoadFromJSON loads configuration from JSON data.
func LoadFromJSON(data []byte) (Config, error) {
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config.WithDefaults(), nil
}

// LoadFromFile loads configuration from a JSON or YAML file.
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config.WithDefaults(), nil
}

// LoadFromEnv loads configuration from ROWLANG_* environment variables,
// starting from the defaults.
func LoadFromEnv() Config {
	config := NewConfig()

	if val := os.Getenv("ROWLANG_INITIAL_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.InitialPoolSize = parsed
		}
	}

	if val := os.Getenv("ROWLANG_MAX_POOL_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.MaxPoolSize = parsed
		}
	}

	if val := os.Getenv("ROWLANG_STREAM_WINDOW_SIZE"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.StreamWindowSize = parsed
		}
	}

	if val := os.Getenv("ROWLANG_OUTPUT_FLUSH_INTERVAL"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			config.OutputFlushInterval = parsed
		}
	}

	if val := os.Getenv("ROWLANG_PACKAGE_PATHS"); val != "" {
		config.PackagePaths = strings.Split(val, string(os.PathListSeparator))
	}

	return config
}
