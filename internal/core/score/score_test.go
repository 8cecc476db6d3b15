package score

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/flowlink/internal/core/model"
)

func TestRatioMatchesSequenceMatcherSemantics(t *testing.T) {
	// 2*M/T over matching blocks: "abcd"/"bcde" share "bcd".
	assert.InDelta(t, 0.75, Ratio("abcd", "bcde"), 1e-9)
	assert.InDelta(t, 1.0, Ratio("water", "water"), 1e-9)
	assert.InDelta(t, 0.0, Ratio("abc", "xyz"), 1e-9)
	assert.InDelta(t, 0.0, Ratio("", ""), 1e-9)
}

func TestSimilarityRewardsTokenCoverage(t *testing.T) {
	fresh := Similarity("water, fresh", "freshwater")
	sea := Similarity("water, fresh", "sea water")

	// Both query tokens appear in "freshwater"; only one in "sea water".
	assert.InDelta(t, 1.0, fresh, 1e-9)
	assert.Greater(t, fresh, sea)
}

func TestScoreExactCASAndName(t *testing.T) {
	query := model.Query{
		Name:  "Carbon dioxide",
		Kind:  model.FlowKindElementary,
		Hints: map[string][]string{"cas": {"124-38-9"}},
	}
	candidate := model.Candidate{
		DisplayName: "Carbon dioxide",
		CAS:         "124-38-9",
		Kind:        model.FlowKindElementary,
	}

	// +5 CAS, +4 exact name, +1 kind agreement.
	assert.InDelta(t, 10.0, Score(query, candidate), 1e-9)
}

func TestScoreSynonymHitsAreDeduplicated(t *testing.T) {
	query := model.Query{Name: "CO2"}
	candidate := model.Candidate{
		DisplayName: "Carbon dioxide",
		Synonyms:    []string{"CO2", "co2", "carbonic acid gas"},
	}

	base := model.Candidate{DisplayName: "Carbon dioxide"}
	assert.InDelta(t, 3.0, Score(query, candidate)-Score(query, base), 1e-9)
}

func TestScoreSpecificityBonusAndPenalty(t *testing.T) {
	bothUnspecified := Score(
		model.Query{Name: "Copper, unspecified"},
		model.Candidate{DisplayName: "Copper, unspecified"},
	)
	oneUnspecified := Score(
		model.Query{Name: "Copper, unspecified"},
		model.Candidate{DisplayName: "Copper ore concentrate"},
	)

	// Exact name +4 plus the +0.5 agreement bonus.
	assert.InDelta(t, 4.5, bothUnspecified, 1e-9)
	assert.Less(t, oneUnspecified, 1.0)
}

func TestScorePrefersFreshwaterOverSeaWater(t *testing.T) {
	query := model.Query{Name: "Water, fresh"}
	freshwater := model.Candidate{DisplayName: "Freshwater", Kind: model.FlowKindElementary}
	seaWater := model.Candidate{DisplayName: "Sea water", Kind: model.FlowKindElementary}

	assert.Greater(t, Score(query, freshwater), Score(query, seaWater))
}

func TestSimilarAcceptsDescriptionContainment(t *testing.T) {
	query := model.Query{
		Name:        "Process steam",
		Description: "high pressure steam, industrial from natural gas boiler",
	}
	candidate := model.Candidate{DisplayName: "steam, industrial"}

	assert.True(t, Similar(query, candidate, 0.65))
}

func TestSimilarRejectsUnrelatedNames(t *testing.T) {
	query := model.Query{Name: "Ethanol"}
	candidate := model.Candidate{DisplayName: "Portland cement"}

	assert.False(t, Similar(query, candidate, 0.65))
}
