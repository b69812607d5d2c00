// Package config provides configuration loading and management for prodtrap.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete prodtrap configuration.
type Config struct {
	Model      ModelConfig      `yaml:"model"`
	Transcript TranscriptConfig `yaml:"transcript"`
	Log        LogConfig        `yaml:"log"`
}

// ModelConfig configures the judgment oracle's model settings.
type ModelConfig struct {
	// Default is the default model to use (e.g., "qwen2.5-coder:14b")
	Default string `yaml:"default"`
	// Provider is the provider for the default model (anthropic, openai, ollama)
	Provider string `yaml:"provider"`
	// Endpoint is the API endpoint URL (default: http://localhost:11434/v1)
	Endpoint string `yaml:"endpoint"`
	// Temperature controls randomness for review calls (0.0-1.0)
	Temperature float64 `yaml:"temperature"`
	// Timeout is the maximum time to wait for oracle responses
	Timeout time.Duration `yaml:"timeout"`
}

// TranscriptConfig configures on-disk session logging.
type TranscriptConfig struct {
	// Path is the SQLite transcript database path. Empty disables logging.
	Path string `yaml:"path"`
}

// LogConfig configures diagnostic logging.
type LogConfig struct {
	// Level is the slog level (debug, info, warn, error).
	Level string `yaml:"level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Default:     "qwen2.5-coder:14b",
			Provider:    "ollama",
			Endpoint:    "http://localhost:11434/v1",
			Temperature: 0.3,
			Timeout:     3 * time.Minute,
		},
		Transcript: TranscriptConfig{
			Path: "prodtrap.db",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Model.Default == "" {
		return fmt.Errorf("model.default is required")
	}
	if c.Model.Provider == "" {
		return fmt.Errorf("model.provider is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 1 {
		return fmt.Errorf("model.temperature must be between 0 and 1")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file.
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

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
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

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Model.Default != "" {
		c.Model.Default = other.Model.Default
	}
	if other.Model.Provider != "" {
		c.Model.Provider = other.Model.Provider
	}
	if other.Model.Endpoint != "" {
		c.Model.Endpoint = other.Model.Endpoint
	}
	if other.Model.Temperature != 0 {
		c.Model.Temperature = other.Model.Temperature
	}
	if other.Model.Timeout != 0 {
		c.Model.Timeout = other.Model.Timeout
	}

	if other.Transcript.Path != "" {
		c.Transcript.Path = other.Transcript.Path
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
}
