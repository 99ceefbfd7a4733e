package conversation

import (
	"fmt"
)

// ErrInvalidTurn is returned by AppendTurn for a turn missing its role or content.
type ErrInvalidTurn struct {
	Reason string
}

func (e ErrInvalidTurn) Error() string {
	return "invalid turn: " + e.Reason
}

// Store owns the transcript and the draft input of one session.
//
// A Store has a single writer: the event loop that drives the session.
// It does no locking. All mutation goes through AppendTurn, SetDraft and
// ClearDraft; readers receive copies.
type Store struct {
	turns     []Turn
	draft     string
	listeners []func(Turn)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// OnAppend registers fn to be called after every successful append, with a
// copy of the stored turn. Used to trigger a re-render.
func (s *Store) OnAppend(fn func(Turn)) {
	s.listeners = append(s.listeners, fn)
}

// AppendTurn links turn to the end of the transcript, computes its hash and
// returns the stored copy. Only the role, and content on user turns, are
// validated.
func (s *Store) AppendTurn(turn Turn) (Turn, error) {
	if !turn.Role.Valid() {
		return Turn{}, ErrInvalidTurn{Reason: fmt.Sprintf("unknown role %q", turn.Role)}
	}
	if turn.Role == RoleUser && turn.Content == "" {
		return Turn{}, ErrInvalidTurn{Reason: "user turn without content"}
	}
	if turn.Role == RoleUser {
		turn.Sources = nil
	}

	stored := turn.clone()
	stored.ParentHash = nil
	if n := len(s.turns); n > 0 {
		parent := s.turns[n-1].Hash
		stored.ParentHash = &parent
	}
	stored.Hash = stored.computeHash()

	s.turns = append(s.turns, stored)

	out := stored.clone()
	for _, fn := range s.listeners {
		fn(stored.clone())
	}
	return out, nil
}

// SetDraft replaces the draft input. No trimming or validation.
func (s *Store) SetDraft(text string) {
	s.draft = text
}

// ClearDraft resets the draft to the empty string.
func (s *Store) ClearDraft() {
	s.draft = ""
}

// Draft returns the current draft input.
func (s *Store) Draft() string {
	return s.draft
}

// Turns returns a copy of the transcript, oldest first.
func (s *Store) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	for i, t := range s.turns {
		out[i] = t.clone()
	}
	return out
}

// Len returns the number of turns.
func (s *Store) Len() int {
	return len(s.turns)
}

// Last returns the most recent turn, if any.
func (s *Store) Last() (Turn, bool) {
	if len(s.turns) == 0 {
		return Turn{}, false
	}
	return s.turns[len(s.turns)-1].clone(), true
}

// Verify walks the transcript and checks every parent link and hash.
func (s *Store) Verify() error {
	var prev string
	for i := range s.turns {
		t := &s.turns[i]

		switch {
		case i == 0 && t.ParentHash != nil:
			return fmt.Errorf("turn 0: unexpected parent %s", *t.ParentHash)
		case i > 0 && (t.ParentHash == nil || *t.ParentHash != prev):
			return fmt.Errorf("turn %d: parent link broken", i)
		}

		if got := t.computeHash(); got != t.Hash {
			return fmt.Errorf("turn %d: hash mismatch: stored %s, computed %s", i, t.Hash, got)
		}
		prev = t.Hash
	}
	return nil
}
