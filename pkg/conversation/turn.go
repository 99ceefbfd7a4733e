// Package conversation holds the transcript of a chat session: an
// append-only, hash-chained sequence of turns plus the draft being typed.
package conversation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"time"
)

// Role identifies who authored a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one immutable entry in the transcript.
type Turn struct {
	// Hash is the content-addressed identifier (SHA-256, hex-encoded).
	// Set by the Store on append.
	Hash string `json:"hash"`

	// ParentHash links to the previous turn. Nil for the first turn.
	ParentHash *string `json:"parent_hash"`

	Role    Role   `json:"role"`
	Content string `json:"content"`

	// Sources are the snippets backing an assistant answer. Always nil on user turns.
	Sources []string `json:"sources,omitempty"`

	// QueryID and ResponseTime echo the server's bookkeeping for an answer, when sent.
	QueryID      string        `json:"query_id,omitempty"`
	ResponseTime time.Duration `json:"response_time,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// UserTurn builds a user turn carrying content verbatim.
func UserTurn(content string) Turn {
	return Turn{
		Role:      RoleUser,
		Content:   content,
		CreatedAt: time.Now(),
	}
}

// AssistantTurn builds an assistant turn. The sources slice is copied.
func AssistantTurn(content string, sources []string) Turn {
	return Turn{
		Role:      RoleAssistant,
		Content:   content,
		Sources:   slices.Clone(sources),
		CreatedAt: time.Now(),
	}
}

// clone returns a deep copy so that callers can never reach stored state.
func (t Turn) clone() Turn {
	c := t
	c.Sources = slices.Clone(t.Sources)
	if t.ParentHash != nil {
		p := *t.ParentHash
		c.ParentHash = &p
	}
	return c
}

// hashInput is the canonical hashed form of a turn. Timestamps and server
// bookkeeping are excluded: the same exchange after the same history hashes
// the same.
type hashInput struct {
	Parent  string   `json:"parent,omitempty"`
	Role    Role     `json:"role"`
	Content string   `json:"content"`
	Sources []string `json:"sources,omitempty"`
}

func (t *Turn) computeHash() string {
	i := &hashInput{
		Role:    t.Role,
		Content: t.Content,
		Sources: t.Sources,
	}

	if t.ParentHash != nil {
		i.Parent = *t.ParentHash
	}

	data, err := json.Marshal(i)
	if err != nil {
		panic("failed to marshal hash input: " + err.Error())
	}

	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
