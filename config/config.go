// Package config provides configuration loading and management for Checkup.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Checkup configuration
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	Audit    AuditConfig    `yaml:"audit"`
	Checks   ChecksConfig   `yaml:"checks"`
}

// RegistryConfig configures where the project registry lives
type RegistryConfig struct {
	// Path is the location of the project registry document
	Path string `yaml:"path"`
}

// ScoringConfig configures score thresholds
type ScoringConfig struct {
	// Threshold is the minimum overall score for a passing check (0-100)
	Threshold float64 `yaml:"threshold"`
}

// AuditConfig configures bulk audit runs
type AuditConfig struct {
	// Include lists glob patterns for eligible source files
	Include []string `yaml:"include"`
	// Ignore lists directory names and glob patterns pruned during traversal
	Ignore []string `yaml:"ignore"`
	// Workers bounds concurrent file checks (0 = NumCPU)
	Workers int `yaml:"workers"`
}

// ChecksConfig configures individual checker behavior
type ChecksConfig struct {
	// RequiredHeaderFields lists the fields the documentation checker
	// requires in a file's header block
	RequiredHeaderFields []string `yaml:"required_header_fields"`
	// MaxFileLines is the module-size checker's file length limit
	MaxFileLines int `yaml:"max_file_lines"`
	// MaxFunctionLines is the module-size checker's function length limit
	MaxFunctionLines int `yaml:"max_function_lines"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Registry: RegistryConfig{
			Path: "", // Resolved by the loader
		},
		Scoring: ScoringConfig{
			Threshold: 75,
		},
		Audit: AuditConfig{
			Include: []string{"**/*.py"},
			Ignore: []string{
				"venv", ".venv", "env", "__pycache__", ".pytest_cache",
				"node_modules", "vendor", "dist", "build", ".tox", ".eggs",
				"site-packages", ".mypy_cache", ".git",
			},
			Workers: 0,
		},
		Checks: ChecksConfig{
			RequiredHeaderFields: []string{"Module", "Purpose"},
			MaxFileLines:         500,
			MaxFunctionLines:     75,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Scoring.Threshold < 0 || c.Scoring.Threshold > 100 {
		return fmt.Errorf("scoring.threshold must be between 0 and 100")
	}
	if c.Audit.Workers < 0 {
		return fmt.Errorf("audit.workers must not be negative")
	}
	if len(c.Audit.Include) == 0 {
		return fmt.Errorf("audit.include must list at least one pattern")
	}
	if c.Checks.MaxFileLines <= 0 {
		return fmt.Errorf("checks.max_file_lines must be positive")
	}
	if c.Checks.MaxFunctionLines <= 0 {
		return fmt.Errorf("checks.max_function_lines must be positive")
	}
	return nil
}

// Merge overlays non-zero fields from other onto c
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Registry.Path != "" {
		c.Registry.Path = other.Registry.Path
	}
	if other.Scoring.Threshold != 0 {
		c.Scoring.Threshold = other.Scoring.Threshold
	}
	if len(other.Audit.Include) > 0 {
		c.Audit.Include = other.Audit.Include
	}
	if len(other.Audit.Ignore) > 0 {
		c.Audit.Ignore = other.Audit.Ignore
	}
	if other.Audit.Workers != 0 {
		c.Audit.Workers = other.Audit.Workers
	}
	if len(other.Checks.RequiredHeaderFields) > 0 {
		c.Checks.RequiredHeaderFields = other.Checks.RequiredHeaderFields
	}
	if other.Checks.MaxFileLines != 0 {
		c.Checks.MaxFileLines = other.Checks.MaxFileLines
	}
	if other.Checks.MaxFunctionLines != 0 {
		c.Checks.MaxFunctionLines = other.Checks.MaxFunctionLines
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
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
