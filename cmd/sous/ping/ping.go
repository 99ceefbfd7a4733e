package pingcmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/sous/cmd/sous/configpath"
	"github.com/papercomputeco/sous/pkg/client"
)

const pingLongDesc string = `Check that the recipe API is up.

Calls GET /health on the configured endpoint and prints the result.

Examples:
  sous ping
  sous ping --endpoint http://192.168.1.42:8000`

const pingShortDesc string = "Check the recipe API health"

type pingCommander struct {
	endpoint string
	timeout  time.Duration
}

func NewPingCmd() *cobra.Command {
	cmder := &pingCommander{}

	cmd := &cobra.Command{
		Use:   "ping",
		Short: pingShortDesc,
		Long:  pingLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.endpoint, "endpoint", "e", "", "Recipe API base URL (overrides config)")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 5*time.Second, "How long to wait for the server")

	return cmd
}

func (c *pingCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := configpath.Load(cmd)
	if err != nil {
		return err
	}
	if c.endpoint != "" {
		cfg.Endpoint = c.endpoint
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	health, err := client.New(client.Config{BaseURL: cfg.Endpoint}, nil).Health(ctx)
	if err != nil {
		return fmt.Errorf("could not reach %s: %w", cfg.Endpoint, err)
	}

	sec := int64(health.Timestamp)
	serverTime := time.Unix(sec, int64((health.Timestamp-float64(sec))*float64(time.Second)))
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (server time %s)\n",
		cfg.Endpoint, health.Status, serverTime.Format(time.RFC3339))

	return nil
}
