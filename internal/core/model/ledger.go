package model

import "time"

// SubstitutionStatus is the terminal state of one resolution attempt.
type SubstitutionStatus string

const (
	StatusSuccess SubstitutionStatus = "SUCCESS"
	StatusFailed  SubstitutionStatus = "FAILED"
)

// FailureReason explains a FAILED substitution in the audit record.
type FailureReason string

const (
	ReasonNoCandidates   FailureReason = "no_candidates"
	ReasonAllConflicting FailureReason = "all_conflicting"
	ReasonBelowThreshold FailureReason = "below_threshold"
	ReasonSearchFailed   FailureReason = "search_failed"
)

// SubstitutionRecord is one audit entry keyed by (ProcessID, OriginalFlowID).
// Re-running a batch overwrites the record sharing the same key.
type SubstitutionRecord struct {
	ProcessID      string             `json:"process_id"`
	OriginalFlowID string             `json:"original_flow_id"`
	ResolvedFlowID string             `json:"resolved_flow_id,omitempty"`
	ResolvedName   string             `json:"resolved_name,omitempty"`
	Status         SubstitutionStatus `json:"status"`
	Reason         FailureReason      `json:"reason,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Key returns the ledger key for the record.
func (r SubstitutionRecord) Key() SubstitutionKey {
	return SubstitutionKey{ProcessID: r.ProcessID, OriginalFlowID: r.OriginalFlowID}
}

// SubstitutionKey identifies one exchange across runs.
type SubstitutionKey struct {
	ProcessID      string
	OriginalFlowID string
}

// MappingCategory partitions identity mappings by entity type.
type MappingCategory string

const (
	CategoryProcesses    MappingCategory = "processes"
	CategorySources      MappingCategory = "sources"
	CategoryProductFlows MappingCategory = "product_flows"
)

// IdentityMapping maps original identifiers to final identifiers per category.
// After Collapse no value is itself a key within the same category.
type IdentityMapping map[MappingCategory]map[string]string

// CanonicalRef carries everything the remapper needs to rewrite a reference node.
type CanonicalRef struct {
	ID               string `json:"id"`
	Version          string `json:"version,omitempty"`
	ShortDescription string `json:"short_description,omitempty"`
}
