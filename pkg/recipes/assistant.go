package recipes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// DefaultTopK is the number of sources returned when the caller does not ask.
const DefaultTopK = 3

const noMatchAnswer = "I couldn't find anything for that in my recipe book. " +
	"Try asking about a dish by name or an ingredient you have on hand."

// Assistant answers questions from an Index. The index can be swapped while
// the assistant is serving.
type Assistant struct {
	mu     sync.RWMutex
	index  Index
	logger *zap.Logger
}

// NewAssistant creates an Assistant over index.
func NewAssistant(index Index, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{index: index, logger: logger}
}

// SetIndex replaces the index and closes the previous one.
func (a *Assistant) SetIndex(index Index) {
	a.mu.Lock()
	old := a.index
	a.index = index
	a.mu.Unlock()

	if old != nil {
		if err := old.Close(); err != nil {
			a.logger.Warn("failed to close previous index", zap.Error(err))
		}
	}
}

// Close closes the current index.
func (a *Assistant) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.index == nil {
		return nil
	}
	return a.index.Close()
}

// Answer retrieves up to topK recipes and composes a markdown answer. The
// returned sources are the matched recipe documents, best first, and are
// never nil.
func (a *Assistant) Answer(ctx context.Context, question string, topK int) (string, []string, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	a.mu.RLock()
	matches, err := a.index.Search(ctx, question, topK)
	a.mu.RUnlock()
	if err != nil {
		return "", nil, fmt.Errorf("search recipes: %w", err)
	}

	a.logger.Debug("retrieved recipes",
		zap.Int("top_k", topK),
		zap.Int("match_count", len(matches)),
	)

	sources := make([]string, 0, len(matches))
	for _, r := range matches {
		sources = append(sources, r.Document())
	}

	if len(matches) == 0 {
		return noMatchAnswer, sources, nil
	}

	return compose(matches), sources, nil
}

func compose(matches []Recipe) string {
	best := matches[0]

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** is the closest match in my recipe book.\n\n", best.Name)

	if len(best.Ingredients) > 0 {
		fmt.Fprintf(&b, "You'll need: %s.\n\n", strings.Join(best.Ingredients, ", "))
	}

	for i, step := range best.Steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}

	if len(matches) > 1 {
		names := make([]string, 0, len(matches)-1)
		for _, r := range matches[1:] {
			names = append(names, "*"+r.Name+"*")
		}
		fmt.Fprintf(&b, "\nAlso worth a look: %s.", strings.Join(names, ", "))
	}

	return strings.TrimRight(b.String(), "\n")
}
