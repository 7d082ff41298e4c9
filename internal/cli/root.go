// Package cli wires the astrodesk commands: the default TUI, login,
// and the scripting-friendly chats listing.
package cli

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	appconfig "github.com/MANASAREDDY288/astropeace-project/internal/config"
	"github.com/MANASAREDDY288/astropeace-project/internal/logging"
	"github.com/MANASAREDDY288/astropeace-project/internal/session"
	"github.com/MANASAREDDY288/astropeace-project/internal/supportapi"
	"github.com/MANASAREDDY288/astropeace-project/internal/tui"
)

type rootOptions struct {
	configFile   string
	baseURL      string
	tenantID     string
	theme        string
	pollInterval time.Duration
	logLevel     string
	chatID       string
}

// Execute runs the astrodesk CLI.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "astrodesk",
		Short:         "AstroPeace support desk console",
		Long:          "Terminal console for the AstroPeace chat/support inbox.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(opts, true)
			if err != nil {
				return err
			}
			return tui.Run(tui.Config{
				Service:      env.client,
				Sessions:     env.sessions,
				Theme:        env.cfg.TUI.Theme,
				PollInterval: env.cfg.TUI.PollInterval,
				OpenChatID:   opts.chatID,
			})
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "config file path")
	flags.StringVar(&opts.baseURL, "base-url", "", "API base URL override")
	flags.StringVar(&opts.tenantID, "tenant", "", "tenant id override")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	cmd.Flags().StringVar(&opts.theme, "theme", "", "theme: default|high-contrast")
	cmd.Flags().DurationVar(&opts.pollInterval, "poll-interval", 0, "conversation poll interval")
	cmd.Flags().StringVar(&opts.chatID, "chat", "", "open this chat directly")

	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newLogoutCmd(opts))
	cmd.AddCommand(newChatsCmd(opts))
	return cmd
}

// env bundles everything a command needs after bootstrap.
type env struct {
	cfg      *appconfig.Config
	sessions *session.Manager
	client   *supportapi.Client
}

// bootstrap loads config, applies flag overrides, initializes logging
// and the session, and builds the API client. tuiMode routes logs to
// the file unconditionally, since the TUI owns the terminal.
func bootstrap(opts *rootOptions, tuiMode bool) (*env, error) {
	loader := appconfig.NewLoader()
	if opts.configFile != "" {
		loader.SetConfigFile(opts.configFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if v := strings.TrimSpace(opts.baseURL); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(opts.tenantID); v != "" {
		cfg.API.TenantID = v
	}
	if v := strings.TrimSpace(opts.theme); v != "" {
		cfg.TUI.Theme = v
	}
	if opts.pollInterval > 0 {
		cfg.TUI.PollInterval = opts.pollInterval
	}
	if v := strings.TrimSpace(opts.logLevel); v != "" {
		cfg.Logging.Level = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if tuiMode {
		logCfg.File = cfg.Logging.File
	}
	if err := logging.Init(logCfg); err != nil {
		return nil, err
	}

	sessions := session.New(cfg.Session.Path)
	if err := sessions.Load(); err != nil {
		return nil, err
	}

	client, err := supportapi.NewClient(supportapi.Config{
		BaseURL:    cfg.API.BaseURL,
		TenantID:   cfg.API.TenantID,
		Token:      sessions.Token,
		HTTPClient: &http.Client{Timeout: cfg.API.Timeout},
		Retries:    cfg.API.Retries,
	})
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, sessions: sessions, client: client}, nil
}

func requireToken(e *env) error {
	if e.sessions.Token() == "" {
		return fmt.Errorf("not signed in; run `astrodesk login` first")
	}
	return nil
}
