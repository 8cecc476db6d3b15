package model

import "strings"

// FlowKind classifies what a catalog flow represents.
type FlowKind string

const (
	FlowKindProduct    FlowKind = "product"
	FlowKindWaste      FlowKind = "waste"
	FlowKindElementary FlowKind = "elementary"
	FlowKindService    FlowKind = "service"
)

// Query describes one exchange to resolve. Immutable per resolution attempt.
type Query struct {
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	ProcessName string              `json:"process_name,omitempty"`
	Context     string              `json:"context,omitempty"`
	Kind        FlowKind            `json:"kind,omitempty"`
	Hints       map[string][]string `json:"hints,omitempty"`
}

// CAS returns the normalized CAS number hint, if the upstream extractor supplied one.
func (q Query) CAS() string {
	return firstHint(q.Hints, "cas", "formula_or_CAS")
}

// Formula returns the chemical formula hint, if present.
func (q Query) Formula() string {
	return firstHint(q.Hints, "formula")
}

// UsageContext returns the free-text usage hints used for medium classification.
func (q Query) UsageContext() []string {
	if q.Hints == nil {
		return nil
	}
	return q.Hints["usage_context"]
}

func firstHint(hints map[string][]string, keys ...string) string {
	if hints == nil {
		return ""
	}
	for _, key := range keys {
		for _, value := range hints[key] {
			if value != "" {
				return value
			}
		}
	}
	return ""
}

// Candidate is the canonical flat record produced by the catalog normalizer.
// No other component constructs these from raw payloads.
type Candidate struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"display_name"`
	CategoryPath string   `json:"category_path,omitempty"`
	CAS          string   `json:"cas,omitempty"`
	Formula      string   `json:"formula,omitempty"`
	Kind         FlowKind `json:"flow_kind,omitempty"`
	Synonyms     []string `json:"synonyms,omitempty"`
	Version      string   `json:"version,omitempty"`
	Geography    string   `json:"geography,omitempty"`
	Treatment    string   `json:"treatment,omitempty"`
	MixLocation  string   `json:"mix_location,omitempty"`
	Comment      string   `json:"general_comment,omitempty"`
}

// ShortDescription composes the reference label from the name segments,
// skipping empty parts and bare "-" placeholders.
func (c Candidate) ShortDescription() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{c.DisplayName, c.Treatment, c.MixLocation} {
		if part != "" && part != "-" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "; ")
}
