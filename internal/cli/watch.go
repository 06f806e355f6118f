package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ttx-deepfake/internal/domain"
	"ttx-deepfake/internal/watch"
)

// NewWatchCmd mirrors a live client session in the terminal.
func NewWatchCmd() *cobra.Command {
	var (
		url      string
		token    string
		clientID string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch a participant's screen and progress from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger("")
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			observer := watch.NewObserver(watch.Config{
				URL:      url,
				Token:    token,
				ClientID: domain.ConnectionID(clientID),
			}, logger)
			return observer.Run(ctx, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&url, "url", "ws://localhost:8080/ws", "live socket URL")
	cmd.Flags().StringVar(&token, "token", os.Getenv("TTX_TOKEN"), "admin bearer token")
	cmd.Flags().StringVar(&clientID, "client", "", "connection id to watch (default: first client)")
	return cmd
}
