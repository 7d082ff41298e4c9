package cli

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MANASAREDDY288/astropeace-project/internal/support"
)

const chatsFetchTimeout = 30 * time.Second

func newChatsCmd(opts *rootOptions) *cobra.Command {
	var (
		search   string
		dateFrom string
		dateTo   string
	)
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "List support chats without entering the console",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := support.InboxFilter{Search: search}
			if dateFrom != "" {
				from, err := time.Parse("2006-01-02", dateFrom)
				if err != nil {
					return fmt.Errorf("invalid --from (use YYYY-MM-DD): %w", err)
				}
				filter.DateFrom = from
			}
			if dateTo != "" {
				to, err := time.Parse("2006-01-02", dateTo)
				if err != nil {
					return fmt.Errorf("invalid --to (use YYYY-MM-DD): %w", err)
				}
				filter.DateTo = to
			}

			env, err := bootstrap(opts, false)
			if err != nil {
				return err
			}
			if err := requireToken(env); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), chatsFetchTimeout)
			defer cancel()
			chats, err := env.client.FetchAllChats(ctx)
			if err != nil {
				return err
			}
			chats = support.FilterChats(chats, filter)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tUSER\tASTROLOGER\tUNREAD\tUPDATED\tQUESTION")
			for i := range chats {
				chat := &chats[i]
				updated := ""
				if !chat.UpdatedAt.IsZero() {
					updated = chat.UpdatedAt.Local().Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					chat.ID,
					orDash(chat.UserName()),
					orDash(chat.AstrologerName()),
					support.UnreadBadge(*chat),
					updated,
					excerpt(chat.Question, 48))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if len(chats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No chats found.")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "match user, astrologer, or question text")
	cmd.Flags().StringVar(&dateFrom, "from", "", "only chats created on/after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dateTo, "to", "", "only chats created on/before this date (YYYY-MM-DD)")
	return cmd
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
