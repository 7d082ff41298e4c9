package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/MANASAREDDY288/astropeace-project/internal/logging"
	"github.com/MANASAREDDY288/astropeace-project/internal/supportapi"
)

const loginProbeTimeout = 20 * time.Second

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var tokenFlag string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API token for this machine",
		Long: "Prompts for a bearer token, verifies it against the chat API, " +
			"and stores it in the local session file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(opts, false)
			if err != nil {
				return err
			}

			token := strings.TrimSpace(tokenFlag)
			if token == "" {
				token, err = promptToken(cmd)
				if err != nil {
					return err
				}
			}
			if token == "" {
				return fmt.Errorf("empty token")
			}

			probe, err := supportapi.NewClient(supportapi.Config{
				BaseURL:  env.cfg.API.BaseURL,
				TenantID: env.cfg.API.TenantID,
				Token:    func() string { return token },
				Retries:  env.cfg.API.Retries,
			})
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), loginProbeTimeout)
			defer cancel()
			if _, err := probe.FetchAllChats(ctx); err != nil {
				if supportapi.Unauthorized(err) {
					return fmt.Errorf("token rejected by %s", env.cfg.API.BaseURL)
				}
				return fmt.Errorf("verify token: %w", err)
			}

			if err := env.sessions.SetToken(token); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			logging.Info().Str("base_url", env.cfg.API.BaseURL).Msg("signed in")
			fmt.Fprintln(cmd.OutOrStdout(), "Signed in.")
			return nil
		},
	}
	cmd.Flags().StringVar(&tokenFlag, "token", "", "bearer token (prompted when omitted)")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored API token",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := bootstrap(opts, false)
			if err != nil {
				return err
			}
			if err := env.sessions.ClearToken(); err != nil {
				return fmt.Errorf("clear session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

// promptToken reads the token without echo when stdin is a terminal,
// and falls back to a plain line read when it is not (pipes, CI).
func promptToken(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Token: ")
	if fd := int(os.Stdin.Fd()); term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.OutOrStdout())
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read token: %w", err)
	}
	return strings.TrimSpace(line), nil
}
