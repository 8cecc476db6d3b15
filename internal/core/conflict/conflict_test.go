package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/flowlink/internal/core/model"
)

func TestDetectToleratesOmittedSignals(t *testing.T) {
	// A candidate missing CAS, formula, and category must never conflict
	// solely because of that absence.
	query := model.Query{
		Name: "Sulfur dioxide",
		Kind: model.FlowKindElementary,
		Hints: map[string][]string{
			"cas":     {"7446-09-5"},
			"formula": {"SO2"},
		},
	}
	candidate := model.Candidate{ID: "f1", DisplayName: "Sulphur dioxide"}

	assert.Empty(t, Detect(query, candidate))
}

func TestDetectCASMismatch(t *testing.T) {
	query := model.Query{
		Name:  "Ethanol",
		Hints: map[string][]string{"cas": {"64-17-5"}},
	}
	candidate := model.Candidate{ID: "f1", DisplayName: "Ethanol", CAS: "7732-18-5"}

	signals := Detect(query, candidate)

	require.Len(t, signals, 1)
	assert.Equal(t, model.ConflictCASMismatch, signals[0].Reason)
}

func TestDetectKindMismatch(t *testing.T) {
	query := model.Query{Name: "Water", Kind: model.FlowKindProduct}
	candidate := model.Candidate{ID: "f1", DisplayName: "Water", Kind: model.FlowKindElementary}

	signals := Detect(query, candidate)

	require.Len(t, signals, 1)
	assert.Equal(t, model.ConflictKindMismatch, signals[0].Reason)
}

func TestDetectFormulaIsCaseSensitive(t *testing.T) {
	query := model.Query{
		Name:  "Carbon monoxide",
		Hints: map[string][]string{"formula": {"CO"}},
	}
	candidate := model.Candidate{ID: "f1", DisplayName: "Cobalt", Formula: "Co"}

	signals := Detect(query, candidate)

	require.Len(t, signals, 1)
	assert.Equal(t, model.ConflictFormulaMismatch, signals[0].Reason)
}

func TestDetectCollectsAllReasons(t *testing.T) {
	query := model.Query{
		Name: "Methane",
		Kind: model.FlowKindElementary,
		Hints: map[string][]string{
			"cas":           {"74-82-8"},
			"usage_context": {"emissions to air"},
		},
	}
	candidate := model.Candidate{
		ID:           "f1",
		DisplayName:  "Methane",
		Kind:         model.FlowKindProduct,
		CAS:          "124-38-9",
		CategoryPath: "Emissions to water",
	}

	signals := Detect(query, candidate)

	reasons := make([]model.ConflictReason, 0, len(signals))
	for _, signal := range signals {
		reasons = append(reasons, signal.Reason)
	}
	assert.ElementsMatch(t, []model.ConflictReason{
		model.ConflictKindMismatch,
		model.ConflictCompartmentMismatch,
		model.ConflictCASMismatch,
	}, reasons)
}

func TestClassifyMediumPrecedence(t *testing.T) {
	assert.Equal(t, MediumResource, ClassifyMedium("water extraction from ground"))
	assert.Equal(t, MediumWater, ClassifyMedium("emissions to freshwater"))
	assert.Equal(t, MediumSoil, ClassifyMedium("agricultural land occupation"))
	assert.Equal(t, MediumAir, ClassifyMedium("released to atmosphere"))
	assert.Equal(t, Medium(""), ClassifyMedium("unknown compartment"))
	assert.Equal(t, Medium(""), ClassifyMedium())
}

func TestUnspecified(t *testing.T) {
	assert.True(t, Unspecified("Copper, unspecified"))
	assert.False(t, Unspecified("Copper ore"))
}
