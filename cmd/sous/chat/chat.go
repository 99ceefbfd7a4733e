package chatcmder

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/papercomputeco/sous/cmd/sous/configpath"
	"github.com/papercomputeco/sous/pkg/client"
	"github.com/papercomputeco/sous/pkg/config"
	"github.com/papercomputeco/sous/pkg/controller"
	"github.com/papercomputeco/sous/pkg/conversation"
	"github.com/papercomputeco/sous/pkg/logger"
	"github.com/papercomputeco/sous/pkg/render"
	"github.com/papercomputeco/sous/pkg/tui"
)

const chatLongDesc string = `Start a chat session with the recipe assistant.

On a terminal the session is full screen: type a question, press
enter, and the answer appears with the recipes it was drawn from.
Press esc or ctrl+c to leave. Logs go to the log file so they
never draw over the session.

When stdin or stdout is not a terminal, or with --plain, each input
line is one question and answers are printed as they arrive.

Examples:
  sous chat
  sous chat --endpoint http://192.168.1.42:8000 --top-k 5
  printf 'How do I poach an egg?\n' | sous chat`

const chatShortDesc string = "Chat with the recipe assistant"

type chatCommander struct {
	endpoint string
	topK     int
	timeout  time.Duration
	logFile  string
	style    string
	plain    bool
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.endpoint, "endpoint", "e", "", "Recipe API base URL (overrides config)")
	cmd.Flags().IntVarP(&cmder.topK, "top-k", "k", 0, "Number of reference recipes to ask for (overrides config)")
	cmd.Flags().DurationVar(&cmder.timeout, "timeout", 0, "Per-question deadline, 0 waits forever (overrides config)")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Log file for the full-screen session (overrides config)")
	cmd.Flags().StringVar(&cmder.style, "style", "", "Markdown style: auto, dark, light or notty (overrides config)")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Use line mode even on a terminal")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := configpath.Load(cmd)
	if err != nil {
		return err
	}
	c.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	plain := c.plain || !isTerminal(cmd.InOrStdin()) || !isTerminal(cmd.OutOrStdout())

	var log *zap.Logger
	if plain {
		log = logger.NewLogger(cfg.Debug, zapcore.AddSync(cmd.ErrOrStderr()))
	} else {
		var closeLog func() error
		log, closeLog, err = logger.NewFileLogger(cfg.Debug, cfg.LogFile)
		if err != nil {
			return err
		}
		defer closeLog()
	}
	defer log.Sync()

	log.Info("starting chat session",
		zap.String("endpoint", cfg.Endpoint),
		zap.Int("top_k", cfg.TopK),
		zap.Duration("timeout", cfg.Timeout.Duration),
		zap.Bool("plain", plain),
	)

	store := conversation.NewStore()
	asker := client.New(client.Config{BaseURL: cfg.Endpoint, TopK: cfg.TopK}, log)
	ctrl := controller.New(store, asker, controller.Config{Timeout: cfg.Timeout.Duration}, log)
	defer ctrl.Close()

	if plain {
		style := cfg.Style
		if !isTerminal(cmd.OutOrStdout()) {
			style = render.StylePlain
		}
		renderer, err := render.New(render.Options{Style: style, Width: cfg.Width})
		if err != nil {
			return err
		}
		return tui.RunPlain(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), store, ctrl, renderer, log)
	}

	m, err := tui.New(ctx, store, ctrl, tui.Options{Style: cfg.Style, Endpoint: cfg.Endpoint}, log)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat session failed: %w", err)
	}

	if err := store.Verify(); err != nil {
		log.Warn("transcript failed verification", zap.Error(err))
	}
	return nil
}

// apply lets explicitly set flags override the config file.
func (c *chatCommander) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = c.endpoint
	}
	if flags.Changed("top-k") {
		cfg.TopK = c.topK
	}
	if flags.Changed("timeout") {
		cfg.Timeout.Duration = c.timeout
	}
	if flags.Changed("log-file") {
		cfg.LogFile = c.logFile
	}
	if flags.Changed("style") {
		cfg.Style = c.style
	}
}

// isTerminal reports whether v is an *os.File attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
