package model

import "math"

// ConflictReason identifies why a query and candidate are provably different entities.
type ConflictReason string

const (
	ConflictKindMismatch        ConflictReason = "kind_mismatch"
	ConflictCompartmentMismatch ConflictReason = "compartment_mismatch"
	ConflictMediumMismatch      ConflictReason = "medium_mismatch"
	ConflictCASMismatch         ConflictReason = "cas_mismatch"
	ConflictFormulaMismatch     ConflictReason = "formula_mismatch"
)

// ConflictSignal is one detected disagreement between query and candidate.
type ConflictSignal struct {
	Reason ConflictReason `json:"reason"`
	Detail string         `json:"detail,omitempty"`
}

// ScoredCandidate pairs a candidate with its similarity score and any conflicts.
// A non-empty Conflicts list forces Score to -Inf so the candidate is never selectable.
type ScoredCandidate struct {
	Candidate Candidate        `json:"candidate"`
	Score     float64          `json:"score"`
	Conflicts []ConflictSignal `json:"conflicts,omitempty"`
}

// Selectable reports whether the candidate survived conflict detection.
func (s ScoredCandidate) Selectable() bool {
	return len(s.Conflicts) == 0 && !math.IsInf(s.Score, -1)
}

// Strategy names which path produced a decision.
type Strategy string

const (
	StrategyLLM       Strategy = "llm"
	StrategyHeuristic Strategy = "heuristic"
	StrategyNone      Strategy = "none"
)

// Decision is the arbitration outcome for one query.
type Decision struct {
	Selected  *Candidate `json:"selected,omitempty"`
	Reasoning string     `json:"reasoning,omitempty"`
	Strategy  Strategy   `json:"strategy"`
}
