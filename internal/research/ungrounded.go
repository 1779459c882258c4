package research

import (
	"context"
	"fmt"

	"github.com/ppiankov/attestor/internal/llm"
	"github.com/ppiankov/attestor/internal/model"
)

// Ungrounded collects evidence from model knowledge alone. Items it produces
// are never marked verified; the verifier discounts them accordingly.
type Ungrounded struct {
	provider llm.Provider
	cfg      model.ResearchConfig
}

// Research asks the provider for evidence items drawn from its own knowledge.
func (u *Ungrounded) Research(ctx context.Context, query string, profile model.DomainProfile) ([]model.EvidenceItem, error) {
	resp, err := u.provider.Invoke(ctx, llm.Request{
		System: researchSystem,
		User:   buildUngroundedPrompt(query, profile, u.cfg.MinEvidence),
	})
	if err != nil {
		return nil, fmt.Errorf("ungrounded research: %w", err)
	}

	items, err := parseEvidence(resp)
	if err != nil {
		return nil, err
	}

	items = dropEmpty(items)
	for i := range items {
		items[i].Verified = false
	}
	return items, nil
}
