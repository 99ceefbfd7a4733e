package recipes

import (
	"context"
	"sort"
)

// Index finds the recipes most relevant to a query.
type Index interface {
	// Search returns at most k recipes, best first. Recipes with nothing in
	// common with the query are never returned.
	Search(ctx context.Context, query string, k int) ([]Recipe, error)

	// Len returns the number of indexed recipes.
	Len() int

	// Close releases any resources.
	Close() error
}

// Builder builds an Index over recipes.
type Builder func(recipes []Recipe) (Index, error)

// KeywordBuilder builds a KeywordIndex.
func KeywordBuilder(recipes []Recipe) (Index, error) {
	return NewKeywordIndex(recipes), nil
}

// KeywordIndex scores recipes by query word overlap. Name matches count double.
type KeywordIndex struct {
	recipes []Recipe
	names   []map[string]struct{}
	bodies  []map[string]struct{}
}

// NewKeywordIndex indexes recipes in memory.
func NewKeywordIndex(recipes []Recipe) *KeywordIndex {
	idx := &KeywordIndex{
		recipes: recipes,
		names:   make([]map[string]struct{}, len(recipes)),
		bodies:  make([]map[string]struct{}, len(recipes)),
	}

	for i, r := range recipes {
		idx.names[i] = tokenSet(r.Name)
		idx.bodies[i] = tokenSet(r.Document())
	}

	return idx
}

// Search implements Index.
func (idx *KeywordIndex) Search(_ context.Context, query string, k int) ([]Recipe, error) {
	if k <= 0 {
		return nil, nil
	}

	type scored struct {
		pos   int
		score int
	}

	terms := tokenSet(query)
	var hits []scored
	for i := range idx.recipes {
		score := 0
		for t := range terms {
			if _, ok := idx.names[i][t]; ok {
				score += 2
			}
			if _, ok := idx.bodies[i][t]; ok {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{pos: i, score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if len(hits) > k {
		hits = hits[:k]
	}

	out := make([]Recipe, len(hits))
	for i, h := range hits {
		out[i] = idx.recipes[h.pos]
	}
	return out, nil
}

// Len implements Index.
func (idx *KeywordIndex) Len() int {
	return len(idx.recipes)
}

// Close implements Index.
func (idx *KeywordIndex) Close() error {
	return nil
}

func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range tokenize(text) {
		set[t] = struct{}{}
	}
	return set
}
