// Package config handles loading and validation of monitor configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variable overrides, e.g.
// BUILDMON_NINJA_BINARY.
const EnvPrefix = "BUILDMON"

// Config represents the monitor configuration.
type Config struct {
	// NinjaBinary is the build engine executable to spawn.
	NinjaBinary string `json:"ninja_binary" mapstructure:"ninja_binary"`

	// BuildDir is the working directory for the spawned build engine.
	BuildDir string `json:"build_dir" mapstructure:"build_dir"`

	// PollIntervalMillis is how long the UI waits for input before polling
	// for new build events again.
	PollIntervalMillis int `json:"poll_interval_ms" mapstructure:"poll_interval_ms"`

	// FollowPollIntervalMillis is the fallback poll interval when following
	// a log file that is still being written.
	FollowPollIntervalMillis int `json:"follow_poll_interval_ms" mapstructure:"follow_poll_interval_ms"`

	// MaxLineBytes bounds a single event line.
	MaxLineBytes int `json:"max_line_bytes" mapstructure:"max_line_bytes"`

	// LogDirectory is the directory for the application log file.
	LogDirectory string `json:"log_directory" mapstructure:"log_directory"`

	// LogLevel sets the logging verbosity (debug, info, warn, error).
	LogLevel string `json:"log_level" mapstructure:"log_level"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		NinjaBinary:              "ninja",
		BuildDir:                 ".",
		PollIntervalMillis:       100,
		FollowPollIntervalMillis: 250,
		MaxLineBytes:             16 * 1024 * 1024,
		LogDirectory:             "./.buildmon",
		LogLevel:                 "info",
	}
}

// Load reads configuration from path, then applies BUILDMON_* environment
// overrides. The format follows the file extension (json, yaml, toml).
// An empty path or a missing file yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("ninja_binary", defaults.NinjaBinary)
	v.SetDefault("build_dir", defaults.BuildDir)
	v.SetDefault("poll_interval_ms", defaults.PollIntervalMillis)
	v.SetDefault("follow_poll_interval_ms", defaults.FollowPollIntervalMillis)
	v.SetDefault("max_line_bytes", defaults.MaxLineBytes)
	v.SetDefault("log_directory", defaults.LogDirectory)
	v.SetDefault("log_level", defaults.LogLevel)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyDefaults fills in default values for any fields that are zero/empty.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.NinjaBinary == "" {
		c.NinjaBinary = defaults.NinjaBinary
	}
	if c.BuildDir == "" {
		c.BuildDir = defaults.BuildDir
	}
	if c.PollIntervalMillis == 0 {
		c.PollIntervalMillis = defaults.PollIntervalMillis
	}
	if c.FollowPollIntervalMillis == 0 {
		c.FollowPollIntervalMillis = defaults.FollowPollIntervalMillis
	}
	if c.MaxLineBytes == 0 {
		c.MaxLineBytes = defaults.MaxLineBytes
	}
	if c.LogDirectory == "" {
		c.LogDirectory = defaults.LogDirectory
	}
	if c.LogLevel == "" {
		c.LogLevel = defaults.LogLevel
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.PollIntervalMillis < 10 || c.PollIntervalMillis > 1000 {
		return fmt.Errorf("poll_interval_ms must be between 10 and 1000, got %d", c.PollIntervalMillis)
	}
	if c.FollowPollIntervalMillis < 10 {
		return fmt.Errorf("follow_poll_interval_ms must be at least 10, got %d", c.FollowPollIntervalMillis)
	}
	if c.MaxLineBytes < 1024 {
		return fmt.Errorf("max_line_bytes must be at least 1024, got %d", c.MaxLineBytes)
	}
	if c.NinjaBinary == "" {
		return fmt.Errorf("ninja_binary cannot be empty")
	}

	// Validate log level
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
		// Valid
	default:
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// PollInterval returns the UI poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

// FollowPollInterval returns the follow-mode fallback interval as a duration.
func (c *Config) FollowPollInterval() time.Duration {
	return time.Duration(c.FollowPollIntervalMillis) * time.Millisecond
}

// Save writes the configuration to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
