package conflict

import (
	"fmt"
	"strings"

	"github.com/agenthands/flowlink/internal/core/common"
	"github.com/agenthands/flowlink/internal/core/model"
)

// Detect evaluates every conflict predicate and collects all reasons. The
// policy is symmetric omission-tolerant: a signal missing on either side is
// never a conflict, only an explicit disagreement is. A missing CAS must not
// block a match; a differing CAS must.
func Detect(query model.Query, candidate model.Candidate) []model.ConflictSignal {
	var signals []model.ConflictSignal

	if sig := kindMismatch(query, candidate); sig != nil {
		signals = append(signals, *sig)
	}
	if sig := compartmentMismatch(query, candidate); sig != nil {
		signals = append(signals, *sig)
	}
	if sig := mediumMismatch(query, candidate); sig != nil {
		signals = append(signals, *sig)
	}
	if sig := casMismatch(query, candidate); sig != nil {
		signals = append(signals, *sig)
	}
	if sig := formulaMismatch(query, candidate); sig != nil {
		signals = append(signals, *sig)
	}
	return signals
}

func kindMismatch(query model.Query, candidate model.Candidate) *model.ConflictSignal {
	if query.Kind == "" || candidate.Kind == "" || query.Kind == candidate.Kind {
		return nil
	}
	return &model.ConflictSignal{
		Reason: model.ConflictKindMismatch,
		Detail: fmt.Sprintf("query declares %s, candidate is %s", query.Kind, candidate.Kind),
	}
}

// compartmentMismatch compares media resolved from structured classification:
// the candidate's category path against the query's usage-context hints.
func compartmentMismatch(query model.Query, candidate model.Candidate) *model.ConflictSignal {
	queryMedium := ClassifyMedium(query.UsageContext()...)
	candidateMedium := ClassifyMedium(candidate.CategoryPath)
	if queryMedium == "" || candidateMedium == "" || queryMedium == candidateMedium {
		return nil
	}
	return &model.ConflictSignal{
		Reason: model.ConflictCompartmentMismatch,
		Detail: fmt.Sprintf("query compartment %s vs candidate %s", queryMedium, candidateMedium),
	}
}

// mediumMismatch compares media resolved from unstructured free text on both
// sides (descriptions and comments).
func mediumMismatch(query model.Query, candidate model.Candidate) *model.ConflictSignal {
	queryMedium := ClassifyMedium(query.Description)
	candidateMedium := ClassifyMedium(candidate.Comment)
	if queryMedium == "" || candidateMedium == "" || queryMedium == candidateMedium {
		return nil
	}
	return &model.ConflictSignal{
		Reason: model.ConflictMediumMismatch,
		Detail: fmt.Sprintf("query medium %s vs candidate %s", queryMedium, candidateMedium),
	}
}

func casMismatch(query model.Query, candidate model.Candidate) *model.ConflictSignal {
	queryCAS := common.NormalizeCAS(query.CAS())
	if queryCAS == "" || candidate.CAS == "" {
		return nil
	}
	if strings.EqualFold(queryCAS, candidate.CAS) {
		return nil
	}
	return &model.ConflictSignal{
		Reason: model.ConflictCASMismatch,
		Detail: fmt.Sprintf("query CAS %s vs candidate %s", queryCAS, candidate.CAS),
	}
}

func formulaMismatch(query model.Query, candidate model.Candidate) *model.ConflictSignal {
	queryFormula := common.NormalizeFormula(query.Formula())
	if queryFormula == "" || candidate.Formula == "" {
		return nil
	}
	// Formulas are case-sensitive: CO and Co are different substances.
	if queryFormula == candidate.Formula {
		return nil
	}
	return &model.ConflictSignal{
		Reason: model.ConflictFormulaMismatch,
		Detail: fmt.Sprintf("query formula %s vs candidate %s", queryFormula, candidate.Formula),
	}
}

// Unspecified reports whether a display name marks the entity as unspecified
// at its granularity, e.g. "Copper, unspecified".
func Unspecified(name string) bool {
	return strings.Contains(common.Fold(name), "unspecified")
}
