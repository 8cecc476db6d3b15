package arbiter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/agenthands/flowlink/internal/core/common"
	"github.com/agenthands/flowlink/internal/core/model"
	"github.com/agenthands/flowlink/internal/llm"
)

// NoMatch is the index a Judge returns when it decides no candidate matches.
const NoMatch = -1

// Judge picks the best candidate for a query, or NoMatch. Implementations may
// call out to an LLM; errors make the arbitrator fall back to the heuristic.
type Judge interface {
	BestMatch(ctx context.Context, query model.Query, candidates []model.ScoredCandidate) (int, string, error)
}

// LLMJudge delegates the choice to a language model with a closed instruction
// to return a zero-based index or null.
type LLMJudge struct {
	LLM llm.LLMClient
}

func NewLLMJudge(llmClient llm.LLMClient) *LLMJudge {
	return &LLMJudge{LLM: llmClient}
}

type bestMatchResult struct {
	BestIndex *int   `json:"best_index"`
	Reason    string `json:"reason"`
}

func (j *LLMJudge) BestMatch(ctx context.Context, query model.Query, candidates []model.ScoredCandidate) (int, string, error) {
	prompt := fmt.Sprintf(`
<TARGET FLOW>
%s
</TARGET FLOW>

<CANDIDATE FLOWS>
%s
</CANDIDATE FLOWS>

Instructions:
Select the single CANDIDATE FLOW that denotes the same real-world substance or
product as the TARGET FLOW. Only select a candidate if you are confident it is
the same entity; a similar name is not enough.
Return a JSON object with key "best_index" holding the zero-based index of the
chosen candidate, or null if none match, and key "reason" with a short
justification.

Example JSON:
{"best_index": 0, "reason": "same substance, same emission compartment"}
`, serializeQuery(query), serializeCandidates(candidates))

	response, err := j.LLM.Generate(ctx, prompt)
	if err != nil {
		return NoMatch, "", fmt.Errorf("failed to generate match selection: %w", err)
	}

	result, err := common.ParseJSON[bestMatchResult](response)
	if err != nil {
		return NoMatch, "", fmt.Errorf("failed to parse match selection: %w", err)
	}
	if result.BestIndex == nil {
		return NoMatch, result.Reason, nil
	}
	if *result.BestIndex < 0 || *result.BestIndex >= len(candidates) {
		return NoMatch, "", fmt.Errorf("best_index %d out of range for %d candidates", *result.BestIndex, len(candidates))
	}
	return *result.BestIndex, result.Reason, nil
}

func serializeQuery(query model.Query) string {
	s := fmt.Sprintf("- Name: %s\n", query.Name)
	if query.Kind != "" {
		s += fmt.Sprintf("  Kind: %s\n", query.Kind)
	}
	if query.Description != "" {
		s += fmt.Sprintf("  Description: %s\n", query.Description)
	}
	if query.ProcessName != "" {
		s += fmt.Sprintf("  Used in process: %s\n", query.ProcessName)
	}
	if cas := query.CAS(); cas != "" {
		s += fmt.Sprintf("  CAS: %s\n", cas)
	}
	return s
}

func serializeCandidates(candidates []model.ScoredCandidate) string {
	var s string
	for i, sc := range candidates {
		line, err := json.Marshal(map[string]any{
			"name":     sc.Candidate.DisplayName,
			"category": sc.Candidate.CategoryPath,
			"cas":      sc.Candidate.CAS,
			"kind":     sc.Candidate.Kind,
			"synonyms": sc.Candidate.Synonyms,
		})
		if err != nil {
			continue
		}
		s += fmt.Sprintf("%d. %s\n", i, line)
	}
	return s
}
