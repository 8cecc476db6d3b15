package catalog

import (
	"fmt"
	"strings"

	"github.com/agenthands/flowlink/internal/core/common"
	"github.com/agenthands/flowlink/internal/core/model"
)

// Normalizer flattens raw catalog payloads into model.Candidate records.
// It is the only place raw payload shapes are interpreted; everything
// downstream works on the canonical struct.
type Normalizer struct {
	primaryLanguage string
}

func NewNormalizer(primaryLanguage string) *Normalizer {
	if primaryLanguage == "" {
		primaryLanguage = "en"
	}
	return &Normalizer{primaryLanguage: primaryLanguage}
}

// NormalizeAll extracts the candidate list from an opaque search payload and
// normalizes each record. Malformed entries are skipped, never fatal.
func (n *Normalizer) NormalizeAll(raw any) []model.Candidate {
	var candidates []model.Candidate
	for _, record := range extractRecords(raw) {
		if candidate := n.Normalize(record); candidate != nil {
			candidates = append(candidates, *candidate)
		}
	}
	return candidates
}

// extractRecords tolerates both bare lists and dict envelopes. Dict payloads
// are checked for candidates|flows|results|data in that order; each entry may
// additionally be wrapped under a "json" key.
func extractRecords(raw any) []any {
	switch payload := raw.(type) {
	case []any:
		return payload
	case map[string]any:
		for _, key := range []string{"candidates", "flows", "results", "data"} {
			if list, ok := payload[key].([]any); ok {
				records := make([]any, 0, len(list))
				for _, item := range list {
					if wrapper, ok := item.(map[string]any); ok {
						if inner, ok := wrapper["json"].(map[string]any); ok {
							records = append(records, inner)
							continue
						}
					}
					records = append(records, item)
				}
				return records
			}
		}
	}
	return nil
}

// Normalize flattens one raw record. Returns nil when no usable display name
// is recoverable; callers treat nil as "skip", not as a match failure.
func (n *Normalizer) Normalize(raw any) *model.Candidate {
	record, ok := raw.(map[string]any)
	if !ok {
		return nil
	}

	// ILCD-style payloads nest everything under flowDataSet.
	if nested, ok := record["flowDataSet"].(map[string]any); ok {
		return n.normalizeFlowDataSet(nested)
	}
	if _, ok := record["flowInformation"]; ok {
		return n.normalizeFlowDataSet(record)
	}

	candidate := model.Candidate{
		ID:           stringField(record, "id", "uuid", "flow_uuid"),
		DisplayName:  n.labelText(firstPresent(record, "display_name", "base_name", "name", "baseName")),
		CategoryPath: n.categoryPath(firstPresent(record, "category_path", "category", "classification")),
		CAS:          common.NormalizeCAS(stringField(record, "cas", "casNumber", "CAS")),
		Formula:      common.NormalizeFormula(stringField(record, "formula", "chemicalFormula", "molecularFormula")),
		Kind:         parseFlowKind(stringField(record, "flow_kind", "kind", "type", "typeOfDataSet")),
		Synonyms:     n.stringList(firstPresent(record, "synonyms", "common:synonyms", "aliases")),
		Version:      stringField(record, "version", "dataSetVersion"),
		Geography:    stringField(record, "geography", "location"),
		Treatment:    n.labelText(record["treatment_standards_routes"]),
		MixLocation:  n.labelText(record["mix_and_location_types"]),
		Comment:      n.labelText(firstPresent(record, "general_comment", "comment")),
	}

	if candidate.DisplayName == "" {
		// Last resort: a bare identifier still lets the arbiter report something.
		candidate.DisplayName = candidate.ID
	}
	if candidate.DisplayName == "" {
		return nil
	}
	return &candidate
}

func (n *Normalizer) normalizeFlowDataSet(flow map[string]any) *model.Candidate {
	info := mapField(flow, "flowInformation")
	dataInfo := mapField(info, "dataSetInformation")
	nameBlock := mapField(dataInfo, "name")

	displayName := n.labelText(nameBlock["baseName"])
	id := stringField(dataInfo, "common:UUID")
	if id == "" {
		id = stringField(flow, "@uuid")
	}
	if displayName == "" {
		displayName = id
	}
	if displayName == "" {
		return nil
	}

	classification := mapField(mapField(dataInfo, "classificationInformation"), "common:classification")
	geography := mapField(info, "geography")
	location := mapField(geography, "locationOfOperationSupplyOrProduction")
	if len(location) == 0 {
		location = mapField(geography, "location")
	}
	admin := mapField(flow, "administrativeInformation")
	publication := mapField(admin, "publicationAndOwnership")
	modelling := mapField(flow, "modellingAndValidation")
	lciMethod := mapField(modelling, "LCIMethod")

	return &model.Candidate{
		ID:           id,
		DisplayName:  displayName,
		CategoryPath: n.categoryPath(classification["common:class"]),
		CAS:          common.NormalizeCAS(stringField(dataInfo, "CASNumber", "casNumber")),
		Formula:      common.NormalizeFormula(stringField(dataInfo, "sumFormula", "chemicalFormula")),
		Kind:         parseFlowKind(stringField(lciMethod, "typeOfDataSet")),
		Synonyms:     n.stringList(dataInfo["common:synonyms"]),
		Version:      stringField(publication, "common:dataSetVersion"),
		Geography:    stringField(location, "@location", "code"),
		Treatment:    n.labelText(nameBlock["treatmentStandardsRoutes"]),
		MixLocation:  n.labelText(nameBlock["mixAndLocationTypes"]),
		Comment:      n.labelText(dataInfo["common:generalComment"]),
	}
}

// labelText resolves a multilingual label value: a plain string, a single
// {"@xml:lang","#text"} object, or a list of them. The configured primary
// language wins, then the first non-empty text.
func (n *Normalizer) labelText(value any) string {
	switch label := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(label)
	case map[string]any:
		return strings.TrimSpace(entryText(label))
	case []any:
		var fallback string
		for _, item := range label {
			entry, ok := item.(map[string]any)
			if !ok {
				if text, ok := item.(string); ok && fallback == "" {
					fallback = text
				}
				continue
			}
			text := entryText(entry)
			if text == "" {
				continue
			}
			if lang, _ := entry["@xml:lang"].(string); strings.EqualFold(lang, n.primaryLanguage) {
				return strings.TrimSpace(text)
			}
			if fallback == "" {
				fallback = text
			}
		}
		return strings.TrimSpace(fallback)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%v", label))
	}
	return ""
}

func entryText(entry map[string]any) string {
	for _, key := range []string{"#text", "text", "@value"} {
		if text, ok := entry[key].(string); ok && text != "" {
			return text
		}
	}
	return ""
}

// categoryPath accepts either a flat "a / b / c" string or a list of leveled
// class entries and returns the flat slash-joined form.
func (n *Normalizer) categoryPath(value any) string {
	switch path := value.(type) {
	case string:
		return strings.TrimSpace(path)
	case []any:
		var segments []string
		for _, item := range path {
			entry, ok := item.(map[string]any)
			if !ok {
				if text, ok := item.(string); ok && text != "" {
					segments = append(segments, text)
				}
				continue
			}
			if text := entryText(entry); text != "" {
				segments = append(segments, text)
			}
		}
		return strings.Join(segments, " / ")
	case map[string]any:
		if text := entryText(path); text != "" {
			return text
		}
	}
	return ""
}

func (n *Normalizer) stringList(value any) []string {
	switch list := value.(type) {
	case string:
		var out []string
		for _, part := range strings.Split(list, ";") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []any:
		var out []string
		for _, item := range list {
			if text := n.labelText(item); text != "" {
				out = append(out, text)
			}
		}
		return out
	case map[string]any:
		if text := n.labelText(list); text != "" {
			return []string{text}
		}
	}
	return nil
}

func parseFlowKind(raw string) model.FlowKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "product", "product flow":
		return model.FlowKindProduct
	case "waste", "waste flow":
		return model.FlowKindWaste
	case "elementary", "elementary flow":
		return model.FlowKindElementary
	case "service", "service flow":
		return model.FlowKindService
	}
	return ""
}

func firstPresent(record map[string]any, keys ...string) any {
	for _, key := range keys {
		if value, ok := record[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

func stringField(record map[string]any, keys ...string) string {
	for _, key := range keys {
		if value, ok := record[key].(string); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func mapField(record map[string]any, key string) map[string]any {
	if record == nil {
		return nil
	}
	if value, ok := record[key].(map[string]any); ok {
		return value
	}
	return nil
}
