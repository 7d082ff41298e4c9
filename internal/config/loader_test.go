package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	require.Equal(t, "https://apidev.astropeace.org", cfg.API.BaseURL)
	require.Equal(t, "astropeace", cfg.API.TenantID)
	require.Equal(t, 30*time.Second, cfg.TUI.PollInterval)
	require.Equal(t, "default", cfg.TUI.Theme)
	require.NotEmpty(t, cfg.Session.Path)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://api.test.example.org
  tenant_id: test-tenant
tui:
  theme: high-contrast
  poll_interval: 10s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	loader := NewLoader()
	loader.SetConfigFile(path)
	cfg, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, "https://api.test.example.org", cfg.API.BaseURL)
	require.Equal(t, "test-tenant", cfg.API.TenantID)
	require.Equal(t, "high-contrast", cfg.TUI.Theme)
	require.Equal(t, 10*time.Second, cfg.TUI.PollInterval)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	loader := NewLoader()
	loader.SetConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := loader.Load()
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }},
		{"empty tenant", func(c *Config) { c.API.TenantID = " " }},
		{"zero timeout", func(c *Config) { c.API.Timeout = 0 }},
		{"negative retries", func(c *Config) { c.API.Retries = -1 }},
		{"sub-second poll", func(c *Config) { c.TUI.PollInterval = 100 * time.Millisecond }},
		{"unknown theme", func(c *Config) { c.TUI.Theme = "neon" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}
