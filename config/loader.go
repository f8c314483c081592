package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// ProjectConfigDir is the per-tree config directory
	ProjectConfigDir = ".checkup"
	// ProjectConfigFile is the name of the config file inside ProjectConfigDir
	ProjectConfigFile = "config.yaml"
	// ConfigPathEnv overrides config discovery when set
	ConfigPathEnv = "CHECKUP_CONFIG"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. Project config (.checkup/config.yaml in current or parent directories)
// 3. Explicit path from $CHECKUP_CONFIG
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		projectConfig, err := LoadFromFile(projectConfigPath)
		if err != nil {
			l.logger.Warn("Failed to load project config",
				slog.String("path", projectConfigPath),
				slog.String("error", err.Error()))
		} else {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		}
	}

	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		envConfig, err := LoadFromFile(envPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config from environment", slog.String("path", envPath))
		config.Merge(envConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// findProjectConfig walks up from the working directory looking for
// .checkup/config.yaml. Returns empty string when none exists.
func (l *Loader) findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigDir, ProjectConfigFile)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
