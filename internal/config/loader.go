package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Loader handles configuration loading with Viper.
type Loader struct {
	v          *viper.Viper
	configFile string
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// SetConfigFile sets an explicit config file path.
func (l *Loader) SetConfigFile(path string) {
	l.configFile = strings.TrimSpace(path)
}

// Load loads configuration with precedence:
// defaults < config file < env vars.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setupViper(cfg)

	if err := l.loadConfigFile(); err != nil {
		// The config file is optional unless explicitly specified.
		if l.configFile != "" {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	expandPaths(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (l *Loader) setupViper(cfg *Config) {
	v := l.v

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		v.AddConfigPath(filepath.Join(xdgConfig, "astrodesk"))
	}
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		v.AddConfigPath(filepath.Join(homeDir, ".config", "astrodesk"))
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("ASTRODESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.tenant_id", cfg.API.TenantID)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.retries", cfg.API.Retries)
	v.SetDefault("tui.theme", cfg.TUI.Theme)
	v.SetDefault("tui.poll_interval", cfg.TUI.PollInterval)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("session.path", cfg.Session.Path)
}

func (l *Loader) loadConfigFile() error {
	if l.configFile != "" {
		l.v.SetConfigFile(l.configFile)
		return l.v.ReadInConfig()
	}

	err := l.v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

func expandPaths(cfg *Config) {
	cfg.Logging.File = expandTilde(cfg.Logging.File)
	cfg.Session.Path = expandTilde(cfg.Session.Path)
}

// expandTilde expands ~ to the user's home directory.
func expandTilde(path string) string {
	if path == "" {
		return path
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
