// Package config provides configuration loading and management for adekit.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete adekit configuration
type Config struct {
	Import ImportConfig `yaml:"import"`
	Export ExportConfig `yaml:"export"`
	Log    LogConfig    `yaml:"log"`
}

// ImportConfig configures dataset import behavior
type ImportConfig struct {
	// Workers bounds concurrent per-image tasks (0 = number of CPUs)
	Workers int `yaml:"workers"`
	// Lenient skips malformed attribute lines instead of failing the image
	Lenient bool `yaml:"lenient"`
	// Strict fails an image when an attribute record has no mask pixels
	Strict bool `yaml:"strict"`
	// FailFast aborts the whole import on the first per-image error
	FailFast bool `yaml:"fail_fast"`
}

// ExportConfig configures dataset export behavior
type ExportConfig struct {
	// Format is the default target format (coco, maskdir)
	Format string `yaml:"format"`
	// Output is the default output directory
	Output string `yaml:"output"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is the slog level (debug, info, warn, error)
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Import: ImportConfig{
			Workers:  0, // Number of CPUs
			Lenient:  false,
			Strict:   false,
			FailFast: false,
		},
		Export: ExportConfig{
			Format: "coco",
			Output: "out",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Import.Workers < 0 {
		return fmt.Errorf("import.workers must not be negative")
	}
	switch c.Export.Format {
	case "coco", "maskdir":
	default:
		return fmt.Errorf("export.format must be one of coco, maskdir; got %q", c.Export.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error; got %q", c.Log.Level)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Import
	if other.Import.Workers != 0 {
		c.Import.Workers = other.Import.Workers
	}
	if other.Import.Lenient {
		c.Import.Lenient = true
	}
	if other.Import.Strict {
		c.Import.Strict = true
	}
	if other.Import.FailFast {
		c.Import.FailFast = true
	}

	// Export
	if other.Export.Format != "" {
		c.Export.Format = other.Export.Format
	}
	if other.Export.Output != "" {
		c.Export.Output = other.Export.Output
	}

	// Log
	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
