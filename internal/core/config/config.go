// Package config handles application configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration. Task data and settings live
// in the data directory; this file only configures the process itself.
type Config struct {
	Reminders RemindersConfig `yaml:"reminders"`
	LogLevel  string          `yaml:"log_level"`
	LogFile   string          `yaml:"log_file"`
	DataDir   string          `yaml:"-"` // set by caller, not from config file
}

// RemindersConfig tunes the reminder scan loop.
type RemindersConfig struct {
	// TickInterval is how often due reminders are collected, e.g. "1s".
	TickInterval string `yaml:"tick_interval"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Reminders: RemindersConfig{
			TickInterval: "1s",
		},
		LogLevel: "info",
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the
// provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Reminders.TickInterval == "" {
		c.Reminders.TickInterval = defaults.Reminders.TickInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	interval, err := time.ParseDuration(c.Reminders.TickInterval)
	if err != nil {
		return fmt.Errorf("reminders.tick_interval: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("reminders.tick_interval must be positive")
	}

	return nil
}

// TickInterval returns the parsed reminder scan interval. Validate must
// have accepted the config first.
func (c *Config) TickInterval() time.Duration {
	interval, err := time.ParseDuration(c.Reminders.TickInterval)
	if err != nil {
		return time.Second
	}
	return interval
}

// BackupsDir returns the path where rotating backups are stored.
func (c *Config) BackupsDir() string {
	return filepath.Join(c.DataDir, "backups")
}

// DataFile returns the path to the task document JSON file.
func (c *Config) DataFile() string {
	return filepath.Join(c.DataDir, "data.json")
}

// SettingsFile returns the path to the settings JSON file.
func (c *Config) SettingsFile() string {
	return filepath.Join(c.DataDir, "settings.json")
}
