package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	chatcmder "github.com/papercomputeco/sous/cmd/sous/chat"
	feedbackcmder "github.com/papercomputeco/sous/cmd/sous/feedback"
	pingcmder "github.com/papercomputeco/sous/cmd/sous/ping"
	servecmder "github.com/papercomputeco/sous/cmd/sous/serve"
)

const rootLongDesc string = `sous is a terminal recipe assistant.

Ask cooking questions in a chat session and get answers with the
recipes they were drawn from. sous can also serve the recipe API
it talks to.

Examples:
  sous serve --recipes ~/recipes.toml
  sous chat
  echo "How do I poach an egg?" | sous chat
  sous feedback query-3f2a 5 "spot on"`

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sous",
		Short:         "A terminal recipe assistant",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default $XDG_CONFIG_HOME/sous/config.toml)")
	cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(feedbackcmder.NewFeedbackCmd())
	cmd.AddCommand(pingcmder.NewPingCmd())

	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
