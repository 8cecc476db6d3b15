package arbiter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/flowlink/internal/core/model"
)

type MockJudge struct {
	Index  int
	Reason string
	Err    error
	Calls  int
}

func (m *MockJudge) BestMatch(ctx context.Context, query model.Query, candidates []model.ScoredCandidate) (int, string, error) {
	m.Calls++
	if m.Err != nil {
		return NoMatch, "", m.Err
	}
	return m.Index, m.Reason, nil
}

type MockLLM struct {
	Response string
	Err      error
}

func (m *MockLLM) Generate(ctx context.Context, prompt string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

func TestDecideConflictDominance(t *testing.T) {
	// Identical name, contradicting CAS: never selectable no matter the similarity.
	query := model.Query{
		Name:  "Ethanol",
		Hints: map[string][]string{"cas": {"7732-18-5"}},
	}
	candidates := []model.Candidate{
		{ID: "f1", DisplayName: "Ethanol", CAS: "64-17-5"},
	}

	arb := NewArbitrator(nil, 0.65, 10)
	decision, scored := arb.Decide(context.Background(), query, candidates)

	assert.Nil(t, decision.Selected)
	assert.Equal(t, model.StrategyNone, decision.Strategy)
	require.Len(t, scored, 1)
	assert.False(t, scored[0].Selectable())
}

func TestDecideHeuristicPicksBestScore(t *testing.T) {
	query := model.Query{Name: "Water, fresh"}
	candidates := []model.Candidate{
		{ID: "f1", DisplayName: "Sea water", Kind: model.FlowKindElementary},
		{ID: "f2", DisplayName: "Freshwater", Kind: model.FlowKindElementary},
	}

	arb := NewArbitrator(nil, 0.65, 10)
	decision, _ := arb.Decide(context.Background(), query, candidates)

	require.NotNil(t, decision.Selected)
	assert.Equal(t, "f2", decision.Selected.ID)
	assert.Equal(t, model.StrategyHeuristic, decision.Strategy)
}

func TestDecideIsDeterministic(t *testing.T) {
	query := model.Query{Name: "Nitrogen"}
	candidates := []model.Candidate{
		{ID: "f1", DisplayName: "Nitrogen"},
		{ID: "f2", DisplayName: "Nitrogen"},
	}

	arb := NewArbitrator(nil, 0.65, 10)
	first, _ := arb.Decide(context.Background(), query, candidates)
	for i := 0; i < 5; i++ {
		again, _ := arb.Decide(context.Background(), query, candidates)
		assert.Equal(t, first, again)
	}
	// Equal scores resolve to input order.
	require.NotNil(t, first.Selected)
	assert.Equal(t, "f1", first.Selected.ID)
}

func TestDecideNoSelectableCandidates(t *testing.T) {
	query := model.Query{Name: "Ethanol"}
	candidates := []model.Candidate{
		{ID: "f1", DisplayName: "Portland cement"},
	}

	arb := NewArbitrator(nil, 0.65, 10)
	decision, scored := arb.Decide(context.Background(), query, candidates)

	assert.Nil(t, decision.Selected)
	assert.Equal(t, model.StrategyNone, decision.Strategy)
	assert.Len(t, scored, 1)
}

func TestDecideUsesJudgeSelection(t *testing.T) {
	query := model.Query{Name: "Water"}
	candidates := []model.Candidate{
		{ID: "f1", DisplayName: "Water"},
		{ID: "f2", DisplayName: "Water, ultrapure"},
	}

	judge := &MockJudge{Index: 1, Reason: "ultrapure grade matches the process context"}
	arb := NewArbitrator(judge, 0.65, 10)
	decision, _ := arb.Decide(context.Background(), query, candidates)

	require.NotNil(t, decision.Selected)
	// The judge answers against the score-sorted pool: exact-name f1 sorts
	// first, so index 1 is f2.
	assert.Equal(t, "f2", decision.Selected.ID)
	assert.Equal(t, model.StrategyLLM, decision.Strategy)
	assert.Equal(t, 1, judge.Calls)
}

func TestDecideJudgeNoMatchIsFinal(t *testing.T) {
	query := model.Query{Name: "Water"}
	candidates := []model.Candidate{
		{ID: "f1", DisplayName: "Water"},
	}

	judge := &MockJudge{Index: NoMatch, Reason: "wrong geography"}
	arb := NewArbitrator(judge, 0.65, 10)
	decision, _ := arb.Decide(context.Background(), query, candidates)

	assert.Nil(t, decision.Selected)
	assert.Equal(t, model.StrategyLLM, decision.Strategy)
	assert.Equal(t, "wrong geography", decision.Reasoning)
}

func TestDecideFallsBackWhenJudgeFails(t *testing.T) {
	query := model.Query{Name: "Water"}
	candidates := []model.Candidate{
		{ID: "f1", DisplayName: "Water"},
	}

	judge := &MockJudge{Err: errors.New("model unavailable")}
	arb := NewArbitrator(judge, 0.65, 10)
	decision, _ := arb.Decide(context.Background(), query, candidates)

	require.NotNil(t, decision.Selected)
	assert.Equal(t, "f1", decision.Selected.ID)
	assert.Equal(t, model.StrategyHeuristic, decision.Strategy)
}

func TestDecideFallsBackWhenJudgeIndexOutOfRange(t *testing.T) {
	query := model.Query{Name: "Water"}
	candidates := []model.Candidate{
		{ID: "f1", DisplayName: "Water"},
		{ID: "f2", DisplayName: "Water, ultrapure"},
	}

	for _, index := range []int{2, 99, -5} {
		judge := &MockJudge{Index: index}
		arb := NewArbitrator(judge, 0.65, 10)
		decision, _ := arb.Decide(context.Background(), query, candidates)

		require.NotNil(t, decision.Selected)
		assert.Equal(t, "f1", decision.Selected.ID)
		assert.Equal(t, model.StrategyHeuristic, decision.Strategy)
	}
}

func TestDecideCapsCandidatesBeforeJudge(t *testing.T) {
	query := model.Query{Name: "Water"}
	var candidates []model.Candidate
	for i := 0; i < 25; i++ {
		candidates = append(candidates, model.Candidate{ID: "f", DisplayName: "Water"})
	}

	var seen int
	judge := judgeFunc(func(ctx context.Context, q model.Query, pool []model.ScoredCandidate) (int, string, error) {
		seen = len(pool)
		return 0, "first", nil
	})
	arb := NewArbitrator(judge, 0.65, 10)
	arb.Decide(context.Background(), query, candidates)

	assert.Equal(t, 10, seen)
}

type judgeFunc func(ctx context.Context, query model.Query, candidates []model.ScoredCandidate) (int, string, error)

func (f judgeFunc) BestMatch(ctx context.Context, query model.Query, candidates []model.ScoredCandidate) (int, string, error) {
	return f(ctx, query, candidates)
}

func TestLLMJudgeParsesBestIndex(t *testing.T) {
	judge := NewLLMJudge(&MockLLM{Response: "Sure thing:\n{\"best_index\": 1, \"reason\": \"same substance\"}"})

	index, reason, err := judge.BestMatch(context.Background(), model.Query{Name: "Water"}, []model.ScoredCandidate{
		{Candidate: model.Candidate{DisplayName: "Sea water"}},
		{Candidate: model.Candidate{DisplayName: "Water"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, index)
	assert.Equal(t, "same substance", reason)
}

func TestLLMJudgeNullMeansNoMatch(t *testing.T) {
	judge := NewLLMJudge(&MockLLM{Response: `{"best_index": null, "reason": "no candidate fits"}`})

	index, reason, err := judge.BestMatch(context.Background(), model.Query{Name: "Water"}, []model.ScoredCandidate{
		{Candidate: model.Candidate{DisplayName: "Steel"}},
	})

	require.NoError(t, err)
	assert.Equal(t, NoMatch, index)
	assert.Equal(t, "no candidate fits", reason)
}

func TestLLMJudgeRejectsOutOfRangeIndex(t *testing.T) {
	judge := NewLLMJudge(&MockLLM{Response: `{"best_index": 7}`})

	_, _, err := judge.BestMatch(context.Background(), model.Query{Name: "Water"}, []model.ScoredCandidate{
		{Candidate: model.Candidate{DisplayName: "Water"}},
	})

	assert.Error(t, err)
}

func TestLLMJudgeRejectsMalformedResponse(t *testing.T) {
	judge := NewLLMJudge(&MockLLM{Response: "I think the first one is best."})

	_, _, err := judge.BestMatch(context.Background(), model.Query{Name: "Water"}, []model.ScoredCandidate{
		{Candidate: model.Candidate{DisplayName: "Water"}},
	})

	assert.Error(t, err)
}
