package score

import (
	"strings"

	"github.com/agenthands/flowlink/internal/core/common"
	"github.com/agenthands/flowlink/internal/core/conflict"
	"github.com/agenthands/flowlink/internal/core/model"
)

// Score rates how well a candidate matches the query. It is only meaningful
// for candidates with no detected conflicts; the arbiter handles that gate.
//
// Weights: exact CAS +5, exact name +4 (else fuzzy 0-1), +3 per distinct
// synonym hit, +1 medium agreement, +1 kind agreement, +0.5 when both sides
// are unspecified at the same granularity, -0.2 when only one side is.
func Score(query model.Query, candidate model.Candidate) float64 {
	var total float64

	queryCAS := common.NormalizeCAS(query.CAS())
	if queryCAS != "" && candidate.CAS != "" && strings.EqualFold(queryCAS, candidate.CAS) {
		total += 5
	}

	queryName := common.Fold(query.Name)
	candidateName := common.Fold(candidate.DisplayName)
	if queryName != "" && queryName == candidateName {
		total += 4
	} else {
		total += Similarity(queryName, candidateName)
	}

	seen := make(map[string]bool)
	for _, synonym := range candidate.Synonyms {
		folded := common.Fold(synonym)
		if folded == "" || seen[folded] {
			continue
		}
		seen[folded] = true
		if folded == queryName {
			total += 3
		}
	}

	if mediumAgreement(query, candidate) {
		total++
	}
	if query.Kind != "" && query.Kind == candidate.Kind {
		total++
	}

	queryUnspecified := conflict.Unspecified(query.Name)
	candidateUnspecified := conflict.Unspecified(candidate.DisplayName)
	switch {
	case queryUnspecified && candidateUnspecified:
		total += 0.5
	case queryUnspecified != candidateUnspecified:
		total -= 0.2
	}
	return total
}

// Similar is the fuzzy pre-filter applied before arbitration: the candidate
// name must clear the ratio threshold against the query name, or one side's
// name must appear verbatim in the other side's free text, or a synonym must
// clear the threshold.
func Similar(query model.Query, candidate model.Candidate, threshold float64) bool {
	queryName := common.Fold(query.Name)
	candidateName := common.Fold(candidate.DisplayName)
	if Similarity(queryName, candidateName) >= threshold {
		return true
	}
	if queryName != "" && candidateName != "" {
		if strings.Contains(common.Fold(query.Description), candidateName) {
			return true
		}
		if strings.Contains(common.Fold(candidate.Comment), queryName) {
			return true
		}
	}
	for _, synonym := range candidate.Synonyms {
		if Similarity(queryName, common.Fold(synonym)) >= threshold {
			return true
		}
	}
	return false
}

func mediumAgreement(query model.Query, candidate model.Candidate) bool {
	queryTexts := append([]string{query.Description}, query.UsageContext()...)
	queryMedium := conflict.ClassifyMedium(queryTexts...)
	candidateMedium := conflict.ClassifyMedium(candidate.CategoryPath, candidate.Comment)
	return queryMedium != "" && queryMedium == candidateMedium
}
