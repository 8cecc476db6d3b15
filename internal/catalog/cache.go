package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/agenthands/flowlink/internal/core/model"
)

// Searcher is the lookup capability the resolver depends on.
type Searcher interface {
	Search(ctx context.Context, query model.Query) ([]model.Candidate, error)
}

// Cache memoizes search results for the lifetime of one batch run. It is
// constructed per run and passed in explicitly; there is no process-wide state.
type Cache struct {
	inner   Searcher
	results map[string][]model.Candidate
}

func NewCache(inner Searcher) *Cache {
	return &Cache{
		inner:   inner,
		results: make(map[string][]model.Candidate),
	}
}

func (c *Cache) Search(ctx context.Context, query model.Query) ([]model.Candidate, error) {
	key := cacheKey(query)
	if cached, ok := c.results[key]; ok {
		return cached, nil
	}
	candidates, err := c.inner.Search(ctx, query)
	if err != nil {
		// Failures are not cached; a later retry of the same key should hit the network.
		return nil, err
	}
	c.results[key] = candidates
	return candidates, nil
}

// cacheKey covers every field that feeds the composed search text, so two
// exchanges sharing a name but differing in context or hints never share a
// cached result.
func cacheKey(query model.Query) string {
	parts := []string{query.Name, query.ProcessName, query.Description, query.Context, string(query.Kind)}
	keys := make([]string, 0, len(query.Hints))
	for key := range query.Hints {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, key+"="+strings.Join(query.Hints[key], ","))
	}
	return strings.Join(parts, "\x00")
}
