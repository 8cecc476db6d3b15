package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/flowlink/internal/core/model"
)

type countingSearcher struct {
	Candidates []model.Candidate
	Err        error
	Calls      int
}

func (c *countingSearcher) Search(ctx context.Context, query model.Query) ([]model.Candidate, error) {
	c.Calls++
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Candidates, nil
}

func TestCacheReusesIdenticalQueries(t *testing.T) {
	inner := &countingSearcher{Candidates: []model.Candidate{{ID: "f1", DisplayName: "Water"}}}
	cache := NewCache(inner)
	ctx := context.Background()

	first, err := cache.Search(ctx, query("Water"))
	require.NoError(t, err)
	second, err := cache.Search(ctx, query("Water"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.Calls)
}

func TestCacheDistinguishesContextAndHints(t *testing.T) {
	inner := &countingSearcher{Candidates: []model.Candidate{{ID: "f1", DisplayName: "Water"}}}
	cache := NewCache(inner)
	ctx := context.Background()

	bare := query("Water")
	enriched := query("Water")
	enriched.Context = "cooling water for electricity production"
	hinted := query("Water")
	hinted.Hints = map[string][]string{"cas": {"7732-18-5"}}

	_, err := cache.Search(ctx, bare)
	require.NoError(t, err)
	_, err = cache.Search(ctx, enriched)
	require.NoError(t, err)
	_, err = cache.Search(ctx, hinted)
	require.NoError(t, err)

	// Same name, three different queries, three remote calls.
	assert.Equal(t, 3, inner.Calls)
}

func TestCacheDoesNotCacheFailures(t *testing.T) {
	inner := &countingSearcher{Err: errors.New("connect: connection refused")}
	cache := NewCache(inner)
	ctx := context.Background()

	_, err := cache.Search(ctx, query("Water"))
	require.Error(t, err)
	inner.Err = nil
	inner.Candidates = []model.Candidate{{ID: "f1", DisplayName: "Water"}}

	candidates, err := cache.Search(ctx, query("Water"))
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, 2, inner.Calls)
}
