package remap

import (
	"regexp"
	"strings"

	"github.com/agenthands/flowlink/internal/core/model"
)

// PlaceholderMarker flags a reference node that could not be resolved yet.
const PlaceholderMarker = "unmatched:placeholder"

var versionSuffix = regexp.MustCompile(`_\d{2}\.\d{2}\.\d{3}$`)

// NormalizeKey produces the lookup form of a reference identifier: lowered,
// trimmed, with any trailing `_01.00.000`-style version suffix removed.
func NormalizeKey(id string) string {
	key := strings.ToLower(strings.TrimSpace(id))
	return versionSuffix.ReplaceAllString(key, "")
}

// Rewrite walks every document and updates reference nodes whose identifier
// has a mapping entry. Returns the number of nodes rewritten. Documents are
// modified in place.
func Rewrite(documents []map[string]any, mapping map[string]model.CanonicalRef) int {
	lookup := make(map[string]model.CanonicalRef, len(mapping))
	for id, ref := range mapping {
		lookup[NormalizeKey(id)] = ref
	}

	updated := 0
	for _, document := range documents {
		updated += rewriteValue(document, lookup)
	}
	return updated
}

func rewriteValue(value any, lookup map[string]model.CanonicalRef) int {
	switch node := value.(type) {
	case map[string]any:
		updated := 0
		if isReferenceNode(node) {
			if rewriteReference(node, lookup) {
				updated++
			}
		}
		for _, child := range node {
			updated += rewriteValue(child, lookup)
		}
		return updated
	case []any:
		updated := 0
		for _, child := range node {
			updated += rewriteValue(child, lookup)
		}
		return updated
	}
	return 0
}

func isReferenceNode(node map[string]any) bool {
	_, ok := node["@refObjectId"]
	return ok
}

func rewriteReference(node map[string]any, lookup map[string]model.CanonicalRef) bool {
	id, _ := node["@refObjectId"].(string)
	if id == "" {
		return false
	}
	ref, ok := lookup[NormalizeKey(id)]
	if !ok {
		return false
	}

	node["@refObjectId"] = ref.ID
	if ref.Version != "" {
		node["@version"] = ref.Version
	}
	if _, hasURI := node["@uri"]; hasURI {
		node["@uri"] = ReferenceURI(ref)
	}
	if ref.ShortDescription != "" {
		node["common:shortDescription"] = map[string]any{
			"@xml:lang": "en",
			"#text":     ref.ShortDescription,
		}
	}
	delete(node, PlaceholderMarker)
	return true
}

// ReferenceURI builds the relative dataset URI for a flow reference.
func ReferenceURI(ref model.CanonicalRef) string {
	if ref.Version == "" {
		return "../flows/" + ref.ID + ".xml"
	}
	return "../flows/" + ref.ID + "_" + ref.Version + ".xml"
}

// Collapse resolves multi-hop id chains so every entry maps directly to its
// final identifier: a→b and b→c become a→c and b→c. Cycles terminate at the
// last identifier seen before revisiting, never loop.
func Collapse(mapping model.IdentityMapping) {
	for _, table := range mapping {
		for original := range table {
			table[original] = resolveChain(table, original)
		}
	}
}

func resolveChain(table map[string]string, start string) string {
	visited := map[string]bool{start: true}
	current := table[start]
	for {
		next, ok := table[current]
		if !ok || next == current || visited[current] {
			return current
		}
		visited[current] = true
		current = next
	}
}
