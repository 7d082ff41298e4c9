// Package config handles console configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config is the root configuration structure for the console.
type Config struct {
	// API settings for the platform backend.
	API APIConfig `yaml:"api" mapstructure:"api"`

	// TUI settings.
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`

	// Logging settings.
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// Session settings.
	Session SessionConfig `yaml:"session" mapstructure:"session"`
}

// APIConfig points the client at the platform backend.
type APIConfig struct {
	// BaseURL is the API gateway origin.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// TenantID is sent as the x-tenant-id header on every call.
	TenantID string `yaml:"tenant_id" mapstructure:"tenant_id"`

	// Timeout bounds a single HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Retries is the number of extra attempts for idempotent calls.
	Retries int `yaml:"retries" mapstructure:"retries"`
}

// TUIConfig contains console presentation settings.
type TUIConfig struct {
	// Theme selects the palette (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// PollInterval is the conversation refresh cadence.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is the log file path. Empty falls back to the data dir.
	File string `yaml:"file" mapstructure:"file"`
}

// SessionConfig locates the persisted session file.
type SessionConfig struct {
	// Path is the session file location. Empty falls back to the
	// data dir.
	Path string `yaml:"path" mapstructure:"path"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	dataDir := defaultDataDir()
	return &Config{
		API: APIConfig{
			BaseURL:  "https://apidev.astropeace.org",
			TenantID: "astropeace",
			Timeout:  15 * time.Second,
			Retries:  1,
		},
		TUI: TUIConfig{
			Theme:        "default",
			PollInterval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   filepath.Join(dataDir, "astrodesk.log"),
		},
		Session: SessionConfig{
			Path: filepath.Join(dataDir, "session.json"),
		},
	}
}

// Validate checks the configuration for usability.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if strings.TrimSpace(c.API.TenantID) == "" {
		return fmt.Errorf("api.tenant_id is required")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive")
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("api.retries must not be negative")
	}
	if c.TUI.PollInterval < time.Second {
		return fmt.Errorf("tui.poll_interval must be at least 1s")
	}
	switch c.TUI.Theme {
	case "default", "high-contrast":
	default:
		return fmt.Errorf("invalid tui.theme %q", c.TUI.Theme)
	}
	return nil
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "astrodesk")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".astrodesk"
	}
	return filepath.Join(home, ".local", "share", "astrodesk")
}
