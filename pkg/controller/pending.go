package controller

import (
	"context"
	"time"

	"github.com/papercomputeco/sous/pkg/conversation"
	"github.com/papercomputeco/sous/pkg/llm"
)

// Pending is the handle on the single in-flight request. It is created by
// Submit and settles exactly once, successfully or not.
type Pending struct {
	// Turn is the user turn that triggered the request.
	Turn conversation.Turn

	// Message is the payload sent, identical to Turn.Content.
	Message string

	StartedAt time.Time

	cancel context.CancelFunc
	done   chan Settlement
}

// Settlement is the outcome of a Pending request.
type Settlement struct {
	Request  *Pending
	Response *llm.ChatResponse
	Err      error
	Elapsed  time.Duration
}

// Done delivers the settlement once. The channel is buffered, so the
// request never blocks on a reader that went away.
func (p *Pending) Done() <-chan Settlement {
	return p.done
}

// Wait blocks until the request settles.
func (p *Pending) Wait() Settlement {
	return <-p.done
}

// Cancel aborts the request. It still settles, as a failure.
func (p *Pending) Cancel() {
	p.cancel()
}
