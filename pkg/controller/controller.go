// Package controller drives the request/response lifecycle of a chat
// session: at most one question in flight, an optimistic user turn on
// submission, and an assistant turn (or a logged failure) on settlement.
//
// The controller is not safe for concurrent use. Submit, Settle and Close
// are meant to be called from the session's event loop; the network call
// itself runs on its own goroutine and hands its result back through
// Pending.Done.
package controller

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercomputeco/sous/pkg/conversation"
	"github.com/papercomputeco/sous/pkg/llm"
	"github.com/papercomputeco/sous/pkg/logger"
)

// Asker sends one question to the inference endpoint.
type Asker interface {
	Chat(ctx context.Context, message string) (*llm.ChatResponse, error)
}

// Config is the controller configuration.
type Config struct {
	// Timeout bounds a single request. Zero means no deadline.
	Timeout time.Duration
}

// Controller is the request state machine for one session.
type Controller struct {
	store   *conversation.Store
	asker   Asker
	config  Config
	logger  *zap.Logger
	state   State
	pending *Pending
}

// New creates a Controller in the Idle state.
func New(store *conversation.Store, asker Asker, config Config, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Controller{
		store:  store,
		asker:  asker,
		config: config,
		logger: logger,
		state:  Idle,
	}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Busy reports whether a request is in flight.
func (c *Controller) Busy() bool {
	return c.state == Busy
}

// Pending returns the in-flight request, or nil when Idle.
func (c *Controller) Pending() *Pending {
	return c.pending
}

// Submit reads the draft and, when accepted, appends it as a user turn and
// dispatches exactly one request. It returns nil when the submission is
// ignored: while Busy, or when the draft is blank. Ignored submissions leave
// the transcript and the draft untouched.
func (c *Controller) Submit(ctx context.Context) *Pending {
	if c.state == Busy {
		c.logger.Debug("submission ignored while busy")
		return nil
	}

	text := c.store.Draft()
	if strings.TrimSpace(text) == "" {
		return nil
	}

	turn, err := c.appendUserTurn(text)
	if err != nil {
		c.logger.Error("failed to append user turn", zap.Error(err))
		return nil
	}

	c.state = Busy
	c.pending = c.dispatch(ctx, turn)
	return c.pending
}

// Settle applies the outcome of the in-flight request and returns to Idle.
// The draft is cleared on success and failure alike. Settlements that do not
// belong to the in-flight request are ignored and reported as false.
func (c *Controller) Settle(s Settlement) bool {
	if c.pending == nil || s.Request != c.pending {
		c.logger.Debug("stale settlement ignored")
		return false
	}

	c.pending.cancel()
	c.pending = nil

	if s.Err != nil {
		c.logger.Error("chat request failed",
			zap.Error(s.Err),
			zap.String("message_preview", logger.Truncate(s.Request.Message, 100)),
			zap.Duration("duration", s.Elapsed),
		)
	} else if err := c.appendAssistantTurn(s.Response); err != nil {
		c.logger.Error("failed to append assistant turn", zap.Error(err))
	} else {
		c.logger.Debug("chat request settled",
			zap.Int("source_count", len(s.Response.Sources)),
			zap.Duration("duration", s.Elapsed),
		)
	}

	c.store.ClearDraft()
	c.state = Idle
	return true
}

// Close cancels the in-flight request, if any. The request still settles;
// a caller that is tearing down may simply never read it.
func (c *Controller) Close() {
	if c.pending != nil {
		c.pending.Cancel()
	}
}

// appendUserTurn is the optimistic half of a submission.
func (c *Controller) appendUserTurn(text string) (conversation.Turn, error) {
	return c.store.AppendTurn(conversation.UserTurn(text))
}

// appendAssistantTurn is the settlement half of a successful submission.
func (c *Controller) appendAssistantTurn(resp *llm.ChatResponse) error {
	if resp == nil {
		resp = &llm.ChatResponse{}
	}

	turn := conversation.AssistantTurn(resp.Answer, resp.Sources)
	turn.QueryID = resp.QueryID
	turn.ResponseTime = time.Duration(resp.ResponseTime * float64(time.Second))

	_, err := c.store.AppendTurn(turn)
	return err
}

func (c *Controller) dispatch(parent context.Context, turn conversation.Turn) *Pending {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if c.config.Timeout > 0 {
		ctx, cancel = context.WithTimeout(parent, c.config.Timeout)
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	p := &Pending{
		Turn:      turn,
		Message:   turn.Content,
		StartedAt: time.Now(),
		cancel:    cancel,
		done:      make(chan Settlement, 1),
	}

	c.logger.Debug("dispatching chat request",
		zap.String("turn_hash", logger.Truncate(turn.Hash, 16)),
		zap.Duration("timeout", c.config.Timeout),
	)

	go func() {
		resp, err := c.asker.Chat(ctx, p.Message)
		p.done <- Settlement{
			Request:  p,
			Response: resp,
			Err:      err,
			Elapsed:  time.Since(p.StartedAt),
		}
	}()

	return p
}
