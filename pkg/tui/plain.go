package tui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/sous/pkg/controller"
	"github.com/papercomputeco/sous/pkg/conversation"
	"github.com/papercomputeco/sous/pkg/render"
)

const plainHelp = `Type a recipe question and press enter.
  /help   show this help
  /quit   leave the session`

// RunPlain runs a line-oriented session for pipes and dumb terminals. Each
// line of in is one submission; assistant turns are written to out as they
// are appended. It returns when in is exhausted, on /quit, or when ctx is
// done.
func RunPlain(ctx context.Context, in io.Reader, out io.Writer, store *conversation.Store, ctrl *controller.Controller, renderer *render.Renderer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	store.OnAppend(func(t conversation.Turn) {
		if t.Role == conversation.RoleAssistant {
			fmt.Fprintf(out, "%s\n\n", renderer.Turn(t))
		}
	})

	fmt.Fprintf(out, "%s\n%s\n\n", title, placeholder)

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()

		switch strings.TrimSpace(line) {
		case "/quit":
			return nil
		case "/help":
			fmt.Fprintln(out, plainHelp)
			continue
		}

		store.SetDraft(line)
		p := ctrl.Submit(ctx)
		if p == nil {
			continue
		}

		fmt.Fprintln(out, "Thinking...")

		select {
		case s := <-p.Done():
			ctrl.Settle(s)
		case <-ctx.Done():
			ctrl.Close()
			ctrl.Settle(p.Wait())
			return ctx.Err()
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	logger.Debug("input closed", zap.Int("turn_count", store.Len()))
	return nil
}
