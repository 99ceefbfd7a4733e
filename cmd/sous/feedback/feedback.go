package feedbackcmder

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/sous/cmd/sous/configpath"
	"github.com/papercomputeco/sous/pkg/client"
	"github.com/papercomputeco/sous/pkg/llm"
)

const feedbackLongDesc string = `Rate an answer from the recipe assistant.

The query ID is shown under each answer in a chat session. Ratings
run from 1 (useless) to 5 (spot on); anything after the rating is
sent as a comment.

With --list, the ratings stored on the server are printed instead,
optionally only those for one query ID.

Examples:
  sous feedback query-3f2a 5
  sous feedback query-3f2a 2 the steps were out of order
  sous feedback --list
  sous feedback --list query-3f2a`

const feedbackShortDesc string = "Rate an answer"

type feedbackCommander struct {
	endpoint string
	list     bool
}

func NewFeedbackCmd() *cobra.Command {
	cmder := &feedbackCommander{}

	cmd := &cobra.Command{
		Use:   "feedback <query-id> <rating> [comment...]",
		Short: feedbackShortDesc,
		Long:  feedbackLongDesc,
		Args: func(cmd *cobra.Command, args []string) error {
			if cmder.list {
				return cobra.MaximumNArgs(1)(cmd, args)
			}
			return cobra.MinimumNArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmder.list {
				return cmder.runList(cmd.Context(), cmd, args)
			}
			return cmder.run(cmd.Context(), cmd, args)
		},
	}

	cmd.Flags().StringVarP(&cmder.endpoint, "endpoint", "e", "", "Recipe API base URL (overrides config)")
	cmd.Flags().BoolVarP(&cmder.list, "list", "l", false, "List stored ratings, optionally for one query ID")

	return cmd
}

func (c *feedbackCommander) client(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := configpath.Load(cmd)
	if err != nil {
		return nil, err
	}
	if c.endpoint != "" {
		cfg.Endpoint = c.endpoint
	}

	return client.New(client.Config{BaseURL: cfg.Endpoint}, nil), nil
}

func (c *feedbackCommander) run(ctx context.Context, cmd *cobra.Command, args []string) error {
	rating, err := strconv.Atoi(args[1])
	if err != nil || rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be a number from 1 to 5, got %q", args[1])
	}

	api, err := c.client(cmd)
	if err != nil {
		return err
	}

	resp, err := api.Feedback(ctx, llm.FeedbackRequest{
		QueryID:  args[0],
		Rating:   rating,
		Feedback: strings.Join(args[2:], " "),
	})
	if err != nil {
		return fmt.Errorf("could not send feedback: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s for %s\n", resp.Status, resp.QueryID)
	return nil
}

func (c *feedbackCommander) runList(ctx context.Context, cmd *cobra.Command, args []string) error {
	var queryID string
	if len(args) == 1 {
		queryID = args[0]
	}

	api, err := c.client(cmd)
	if err != nil {
		return err
	}

	resp, err := api.ListFeedback(ctx, queryID)
	if err != nil {
		return fmt.Errorf("could not list feedback: %w", err)
	}

	out := cmd.OutOrStdout()
	if resp.Count == 0 {
		fmt.Fprintln(out, "No feedback yet")
		return nil
	}
	for _, e := range resp.Entries {
		line := fmt.Sprintf("%s\t%d", e.QueryID, e.Rating)
		if e.Feedback != "" {
			line += "\t" + e.Feedback
		}
		fmt.Fprintln(out, line)
	}

	return nil
}
