package remap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/flowlink/internal/core/model"
)

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "abc-def", NormalizeKey("ABC-DEF"))
	assert.Equal(t, "abc-def", NormalizeKey("abc-def_01.00.000"))
	assert.Equal(t, "abc-def", NormalizeKey("  abc-def  "))
}

func TestRewriteReplacesReferenceNodes(t *testing.T) {
	document := map[string]any{
		"exchanges": []any{
			map[string]any{
				"referenceToFlowDataSet": map[string]any{
					"@refObjectId":          "OLD-ID_01.00.000",
					"@version":              "00.00.000",
					"@uri":                  "../flows/old-id.xml",
					"unmatched:placeholder": true,
				},
			},
		},
	}

	mapping := map[string]model.CanonicalRef{
		"old-id": {ID: "new-id", Version: "02.00.000", ShortDescription: "Water; deionised"},
	}

	updated := Rewrite([]map[string]any{document}, mapping)

	assert.Equal(t, 1, updated)
	ref := document["exchanges"].([]any)[0].(map[string]any)["referenceToFlowDataSet"].(map[string]any)
	assert.Equal(t, "new-id", ref["@refObjectId"])
	assert.Equal(t, "02.00.000", ref["@version"])
	assert.Equal(t, "../flows/new-id_02.00.000.xml", ref["@uri"])
	assert.NotContains(t, ref, PlaceholderMarker)

	desc, ok := ref["common:shortDescription"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Water; deionised", desc["#text"])
}

func TestRewriteLeavesUnmappedNodesAlone(t *testing.T) {
	document := map[string]any{
		"referenceToFlowDataSet": map[string]any{"@refObjectId": "unknown-id"},
	}

	updated := Rewrite([]map[string]any{document}, map[string]model.CanonicalRef{
		"other-id": {ID: "new-id"},
	})

	assert.Equal(t, 0, updated)
	ref := document["referenceToFlowDataSet"].(map[string]any)
	assert.Equal(t, "unknown-id", ref["@refObjectId"])
}

func TestCollapseResolvesChains(t *testing.T) {
	mapping := model.IdentityMapping{
		model.CategoryProcesses: {
			"a": "b",
			"b": "c",
			"c": "d",
		},
	}

	Collapse(mapping)

	table := mapping[model.CategoryProcesses]
	assert.Equal(t, "d", table["a"])
	assert.Equal(t, "d", table["b"])
	assert.Equal(t, "d", table["c"])
}

func TestCollapseTerminatesOnCycle(t *testing.T) {
	mapping := model.IdentityMapping{
		model.CategorySources: {
			"a": "b",
			"b": "c",
			"c": "d",
			"x": "y",
			"y": "x",
		},
	}

	Collapse(mapping)

	table := mapping[model.CategorySources]
	assert.Equal(t, "d", table["a"])
	// The cycle resolves to the last identifier seen before revisiting.
	assert.Contains(t, []string{"x", "y"}, table["x"])
	assert.Contains(t, []string{"x", "y"}, table["y"])
}

func TestMarkUnresolvedReplacesWithPlaceholder(t *testing.T) {
	document := map[string]any{
		"referenceToFlowDataSet": map[string]any{
			"@refObjectId": "orig-1",
			"@version":     "01.00.000",
		},
	}

	marked := MarkUnresolved([]map[string]any{document}, map[string]string{"orig-1": "Mystery flow"})

	assert.Equal(t, 1, marked)
	ref := document["referenceToFlowDataSet"].(map[string]any)
	assert.NotEqual(t, "orig-1", ref["@refObjectId"])
	assert.Equal(t, PlaceholderVersion, ref["@version"])
	assert.Equal(t, true, ref[PlaceholderMarker])

	desc := ref["common:shortDescription"].(map[string]any)
	assert.Equal(t, "Mystery flow", desc["#text"])
}

func TestMarkUnresolvedSkipsExistingPlaceholders(t *testing.T) {
	document := map[string]any{
		"referenceToFlowDataSet": map[string]any{
			"@refObjectId":    "orig-1",
			PlaceholderMarker: true,
		},
	}

	marked := MarkUnresolved([]map[string]any{document}, map[string]string{"orig-1": "Mystery flow"})

	assert.Equal(t, 0, marked)
}

func TestPlaceholderRefShape(t *testing.T) {
	ref := PlaceholderRef("Unmatched exchange")

	assert.NotEmpty(t, ref["@refObjectId"])
	assert.Equal(t, PlaceholderVersion, ref["@version"])
	assert.Equal(t, true, ref[PlaceholderMarker])
}
