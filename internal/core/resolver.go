package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/agenthands/flowlink/internal/catalog"
	"github.com/agenthands/flowlink/internal/core/arbiter"
	"github.com/agenthands/flowlink/internal/core/model"
	"github.com/agenthands/flowlink/internal/remap"
)

// Exchange is one pending line item to resolve against the catalog.
type Exchange struct {
	ProcessID      string      `json:"process_id"`
	OriginalFlowID string      `json:"original_flow_id"`
	Query          model.Query `json:"query"`
}

// Outcome is the result of resolving one exchange.
type Outcome struct {
	Exchange Exchange                 `json:"exchange"`
	Record   model.SubstitutionRecord `json:"record"`
	Decision model.Decision           `json:"decision"`
	Skipped  bool                     `json:"skipped,omitempty"`
}

// Ledger is the persistence surface the resolver writes through.
type Ledger interface {
	Resume(ctx context.Context) (map[model.SubstitutionKey]struct{}, error)
	Record(ctx context.Context, record model.SubstitutionRecord) error
	PutMapping(ctx context.Context, category model.MappingCategory, originalID, finalID string) error
}

// Resolver runs the batch resolution loop: search, arbitrate, record, rewrite.
// Exchanges are resolved one at a time; a transport failure marks that key
// FAILED and the batch continues. Only ledger write errors abort a run.
type Resolver struct {
	Catalog catalog.Searcher
	Arbiter *arbiter.Arbitrator
	Ledger  Ledger
}

func NewResolver(search catalog.Searcher, arb *arbiter.Arbitrator, store Ledger) *Resolver {
	return &Resolver{
		Catalog: catalog.NewCache(search),
		Arbiter: arb,
		Ledger:  store,
	}
}

// ResolveBatch resolves every exchange not already recorded SUCCESS. The
// returned outcomes cover all input exchanges, including skipped ones.
func (r *Resolver) ResolveBatch(ctx context.Context, exchanges []Exchange) ([]Outcome, error) {
	done, err := r.Ledger.Resume(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load resume state: %w", err)
	}

	outcomes := make([]Outcome, 0, len(exchanges))
	for _, exchange := range exchanges {
		key := model.SubstitutionKey{ProcessID: exchange.ProcessID, OriginalFlowID: exchange.OriginalFlowID}
		if _, ok := done[key]; ok {
			outcomes = append(outcomes, Outcome{Exchange: exchange, Skipped: true})
			continue
		}

		outcome, err := r.resolveOne(ctx, exchange)
		if err != nil {
			return nil, err
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

func (r *Resolver) resolveOne(ctx context.Context, exchange Exchange) (Outcome, error) {
	record := model.SubstitutionRecord{
		ProcessID:      exchange.ProcessID,
		OriginalFlowID: exchange.OriginalFlowID,
		UpdatedAt:      time.Now().UTC(),
	}

	candidates, err := r.Catalog.Search(ctx, exchange.Query)
	if err != nil {
		var timeoutErr *catalog.TimeoutError
		var unavailableErr *catalog.UnavailableError
		if !errors.As(err, &timeoutErr) && !errors.As(err, &unavailableErr) {
			return Outcome{}, fmt.Errorf("search failed for %q: %w", exchange.Query.Name, err)
		}
		log.Printf("Resolver: search failed for %q, recording FAILED: %v", exchange.Query.Name, err)
		record.Status = model.StatusFailed
		record.Reason = model.ReasonSearchFailed
		return r.finish(ctx, exchange, record, model.Decision{Strategy: model.StrategyNone, Reasoning: err.Error()})
	}

	decision, scored := r.Arbiter.Decide(ctx, exchange.Query, candidates)
	if decision.Selected != nil {
		record.Status = model.StatusSuccess
		record.ResolvedFlowID = decision.Selected.ID
		record.ResolvedName = decision.Selected.DisplayName
		// The audit row goes in first so a mapping entry never exists without
		// its substitution record.
		outcome, err := r.finish(ctx, exchange, record, decision)
		if err != nil {
			return Outcome{}, err
		}
		if err := r.Ledger.PutMapping(ctx, model.CategoryProductFlows, exchange.OriginalFlowID, decision.Selected.ID); err != nil {
			return Outcome{}, err
		}
		return outcome, nil
	}

	record.Status = model.StatusFailed
	record.Reason = failureReason(scored)
	return r.finish(ctx, exchange, record, decision)
}

func (r *Resolver) finish(ctx context.Context, exchange Exchange, record model.SubstitutionRecord, decision model.Decision) (Outcome, error) {
	if err := r.Ledger.Record(ctx, record); err != nil {
		return Outcome{}, err
	}
	return Outcome{Exchange: exchange, Record: record, Decision: decision}, nil
}

// failureReason distinguishes the audit trail for unmatched exchanges.
func failureReason(scored []model.ScoredCandidate) model.FailureReason {
	if len(scored) == 0 {
		return model.ReasonNoCandidates
	}
	for _, sc := range scored {
		if len(sc.Conflicts) == 0 {
			return model.ReasonBelowThreshold
		}
	}
	return model.ReasonAllConflicting
}

// CanonicalRefs builds the rewrite mapping from successful outcomes, keyed by
// the original flow identifier.
func CanonicalRefs(outcomes []Outcome) map[string]model.CanonicalRef {
	refs := make(map[string]model.CanonicalRef)
	for _, outcome := range outcomes {
		if outcome.Record.Status != model.StatusSuccess || outcome.Decision.Selected == nil {
			continue
		}
		selected := outcome.Decision.Selected
		refs[outcome.Exchange.OriginalFlowID] = model.CanonicalRef{
			ID:               selected.ID,
			Version:          selected.Version,
			ShortDescription: selected.ShortDescription(),
		}
	}
	return refs
}

// RewriteDocuments applies resolved identities to downstream documents in
// place and marks still-unresolved references with fresh placeholders.
func RewriteDocuments(documents []map[string]any, outcomes []Outcome) int {
	updated := remap.Rewrite(documents, CanonicalRefs(outcomes))

	unresolved := make(map[string]string)
	for _, outcome := range outcomes {
		if outcome.Skipped || outcome.Record.Status != model.StatusFailed {
			continue
		}
		unresolved[outcome.Exchange.OriginalFlowID] = outcome.Exchange.Query.Name
	}
	remap.MarkUnresolved(documents, unresolved)
	return updated
}
