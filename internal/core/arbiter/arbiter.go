package arbiter

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/agenthands/flowlink/internal/core/conflict"
	"github.com/agenthands/flowlink/internal/core/model"
	"github.com/agenthands/flowlink/internal/core/score"
)

// Arbitrator turns a normalized candidate list into a match decision. It
// combines conflict detection, heuristic scoring, and an optional Judge; a
// judge failure never fails the resolution, it degrades to the heuristic.
type Arbitrator struct {
	Judge        Judge // nil disables LLM arbitration
	Threshold    float64
	CandidateCap int
}

func NewArbitrator(judge Judge, threshold float64, candidateCap int) *Arbitrator {
	if threshold <= 0 {
		threshold = 0.65
	}
	if candidateCap <= 0 {
		candidateCap = 10
	}
	return &Arbitrator{Judge: judge, Threshold: threshold, CandidateCap: candidateCap}
}

// Decide scores every candidate and picks at most one. The second return value
// is the full scored list, in input order, for audit trails.
func (a *Arbitrator) Decide(ctx context.Context, query model.Query, candidates []model.Candidate) (model.Decision, []model.ScoredCandidate) {
	scored := a.scoreAll(query, candidates)

	pool := make([]model.ScoredCandidate, 0, len(scored))
	for _, sc := range scored {
		if sc.Selectable() && score.Similar(query, sc.Candidate, a.Threshold) {
			pool = append(pool, sc)
		}
	}
	// Stable sort keeps input order for equal scores, so ties resolve to the
	// first candidate deterministically.
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Score > pool[j].Score })
	if len(pool) > a.CandidateCap {
		pool = pool[:a.CandidateCap]
	}

	if len(pool) == 0 {
		return model.Decision{Strategy: model.StrategyNone, Reasoning: "no selectable candidates"}, scored
	}

	if a.Judge != nil {
		index, reason, err := a.Judge.BestMatch(ctx, query, pool)
		switch {
		case err != nil:
			log.Printf("Arbitrator: judge failed for %q, falling back to heuristic: %v", query.Name, err)
		case index == NoMatch:
			if reason == "" {
				reason = "judge found no matching candidate"
			}
			return model.Decision{Strategy: model.StrategyLLM, Reasoning: reason}, scored
		case index < 0 || index >= len(pool):
			// Never trust a judge implementation with pool bounds.
			log.Printf("Arbitrator: judge returned out-of-range index %d for %q, falling back to heuristic", index, query.Name)
		default:
			selected := pool[index].Candidate
			return model.Decision{Selected: &selected, Strategy: model.StrategyLLM, Reasoning: reason}, scored
		}
	}

	best := pool[0]
	if best.Score > 0 {
		selected := best.Candidate
		return model.Decision{
			Selected:  &selected,
			Strategy:  model.StrategyHeuristic,
			Reasoning: fmt.Sprintf("top heuristic score %.2f", best.Score),
		}, scored
	}
	return model.Decision{
		Strategy:  model.StrategyNone,
		Reasoning: fmt.Sprintf("best heuristic score %.2f not above zero", best.Score),
	}, scored
}

func (a *Arbitrator) scoreAll(query model.Query, candidates []model.Candidate) []model.ScoredCandidate {
	scored := make([]model.ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		conflicts := conflict.Detect(query, candidate)
		sc := model.ScoredCandidate{Candidate: candidate, Conflicts: conflicts}
		if len(conflicts) > 0 {
			sc.Score = math.Inf(-1)
		} else {
			sc.Score = score.Score(query, candidate)
		}
		scored = append(scored, sc)
	}
	return scored
}
