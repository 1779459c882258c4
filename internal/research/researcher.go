// Package research collects evidence for a query. Two strategies exist:
// grounded research fans out over a search collaborator and extracts evidence
// from real results, ungrounded research draws on model knowledge alone. The
// strategy is picked by capability, not configuration: no search service
// means ungrounded.
package research

import (
	"context"
	"encoding/json"

	"github.com/ppiankov/attestor/internal/jsonx"
	"github.com/ppiankov/attestor/internal/llm"
	"github.com/ppiankov/attestor/internal/model"
	"github.com/ppiankov/attestor/internal/search"
)

// Researcher collects evidence items for a query under a domain profile.
type Researcher interface {
	Research(ctx context.Context, query string, profile model.DomainProfile) ([]model.EvidenceItem, error)
}

// New selects the research strategy. A nil search service selects the
// ungrounded strategy.
func New(provider llm.Provider, svc search.Service, cfg model.ResearchConfig) Researcher {
	if svc == nil {
		return &Ungrounded{provider: provider, cfg: cfg}
	}
	return &Grounded{provider: provider, search: svc, cfg: cfg}
}

// parseEvidence runs the shared resilience ladder over a raw LLM response
// that should contain a JSON array of evidence items: strip fences, parse
// as-is, repair if the response was cut off, then extract an embedded array.
func parseEvidence(resp *llm.Response) ([]model.EvidenceItem, error) {
	cleaned := jsonx.StripFences(resp.Text)

	var items []model.EvidenceItem
	if err := json.Unmarshal([]byte(cleaned), &items); err == nil {
		return items, nil
	}

	if resp.StopReason == llm.StopTruncated {
		if repaired := jsonx.RepairTruncated(cleaned); repaired != "" {
			if err := json.Unmarshal([]byte(repaired), &items); err == nil {
				return items, nil
			}
		}
	}

	if candidate := jsonx.ExtractArray(cleaned); candidate != "" {
		if err := json.Unmarshal([]byte(candidate), &items); err == nil {
			return items, nil
		}
	}

	return nil, &jsonx.ParseError{
		Stage:      "research",
		StopReason: string(resp.StopReason),
		Raw:        resp.Text,
	}
}

// dropEmpty removes items with no usable quote. The synthesizer cannot cite
// an empty quote, so they only inflate the evidence count.
func dropEmpty(items []model.EvidenceItem) []model.EvidenceItem {
	kept := items[:0]
	for _, item := range items {
		if item.Quote == "" {
			continue
		}
		if item.URL == "" {
			item.URL = model.URLGeneral
		}
		kept = append(kept, item)
	}
	return kept
}
