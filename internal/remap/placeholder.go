package remap

import (
	"github.com/google/uuid"

	"github.com/agenthands/flowlink/internal/core/model"
)

// PlaceholderVersion marks references that point at a flow not yet published.
const PlaceholderVersion = "00.00.000"

// PlaceholderRef builds a reference node for an exchange that could not be
// resolved: a fresh identifier, the placeholder version, and the marker a
// later run (or a publishing pass) uses to find it again.
func PlaceholderRef(name string) map[string]any {
	ref := model.CanonicalRef{ID: uuid.New().String(), Version: PlaceholderVersion}
	return map[string]any{
		"@refObjectId":    ref.ID,
		"@type":           "flow data set",
		"@version":        ref.Version,
		"@uri":            ReferenceURI(ref),
		PlaceholderMarker: true,
		"common:shortDescription": map[string]any{
			"@xml:lang": "en",
			"#text":     name,
		},
	}
}

// MarkUnresolved converts every reference node whose identifier appears in
// unresolved (original id -> display name) into a placeholder reference.
// Returns the number of nodes replaced.
func MarkUnresolved(documents []map[string]any, unresolved map[string]string) int {
	lookup := make(map[string]string, len(unresolved))
	for id, name := range unresolved {
		lookup[NormalizeKey(id)] = name
	}

	marked := 0
	for _, document := range documents {
		marked += markValue(document, lookup)
	}
	return marked
}

func markValue(value any, lookup map[string]string) int {
	switch node := value.(type) {
	case map[string]any:
		marked := 0
		if isReferenceNode(node) {
			if markReference(node, lookup) {
				marked++
			}
		}
		for _, child := range node {
			marked += markValue(child, lookup)
		}
		return marked
	case []any:
		marked := 0
		for _, child := range node {
			marked += markValue(child, lookup)
		}
		return marked
	}
	return 0
}

func markReference(node map[string]any, lookup map[string]string) bool {
	id, _ := node["@refObjectId"].(string)
	if id == "" {
		return false
	}
	name, ok := lookup[NormalizeKey(id)]
	if !ok {
		return false
	}
	if marker, _ := node[PlaceholderMarker].(bool); marker {
		return false
	}
	placeholder := PlaceholderRef(name)
	for key := range node {
		delete(node, key)
	}
	for key, value := range placeholder {
		node[key] = value
	}
	return true
}
