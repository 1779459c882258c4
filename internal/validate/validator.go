// Package validate enforces the structural contracts between pipeline
// stages. Stage code is responsible for producing conformant output; these
// checks catch the cases where it did not, before a broken structure
// propagates into rendering or persistence.
package validate

import (
	"fmt"

	"github.com/ppiankov/attestor/internal/model"
)

// InvariantError reports a violated structural contract.
type InvariantError struct {
	Stage  string // Stage whose output violated the contract
	Rule   string // Short rule name, e.g. "unique-finding-ids"
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s violates %s: %s", e.Stage, e.Rule, e.Detail)
}

func violation(stage, rule, format string, args ...interface{}) error {
	return &InvariantError{Stage: stage, Rule: rule, Detail: fmt.Sprintf(format, args...)}
}

// Profile checks a classifier-produced domain profile.
func Profile(p model.DomainProfile) error {
	if p.Domain == "" {
		return violation("classify", "domain-set", "empty domain")
	}
	if len(p.Sections) == 0 {
		return violation("classify", "sections-present", "no sections")
	}
	seen := make(map[string]bool, len(p.Sections))
	for _, s := range p.Sections {
		if s.ID == "" {
			return violation("classify", "section-ids", "section with empty id")
		}
		if seen[s.ID] {
			return violation("classify", "section-ids", "duplicate section id %q", s.ID)
		}
		seen[s.ID] = true
	}
	if len(p.SourceHierarchy) == 0 {
		return violation("classify", "source-hierarchy", "empty source hierarchy")
	}
	return nil
}

// Evidence checks researcher-produced evidence items.
func Evidence(items []model.EvidenceItem) error {
	if len(items) == 0 {
		return violation("research", "evidence-present", "no evidence collected")
	}
	for i, item := range items {
		if item.Quote == "" {
			return violation("research", "quotes-set", "item %d has empty quote", i)
		}
		if item.URL == "" {
			return violation("research", "urls-set", "item %d has empty url", i)
		}
	}
	return nil
}

// Draft checks the synthesizer's structural contract: unique resolvable
// finding ids, findings homed in existing sections, unset certainty, and
// empty contrary evidence.
func Draft(r *model.Report) error {
	if err := reportStructure(r, "synth"); err != nil {
		return err
	}
	for _, f := range r.Findings {
		if f.Certainty != 0 {
			return violation("synth", "certainty-unset", "finding %s carries certainty %d", f.ID, f.Certainty)
		}
		if len(f.Explanation.ContraryEvidence) != 0 {
			return violation("synth", "contrary-empty", "finding %s carries contrary evidence", f.ID)
		}
	}
	return nil
}

// Final checks a verified report: draft structure plus in-range certainty,
// no adjacent text items, and a consistent aggregate.
func Final(r *model.Report) error {
	if err := reportStructure(r, "verify"); err != nil {
		return err
	}
	for _, f := range r.Findings {
		if f.Certainty < 1 || f.Certainty > 99 {
			return violation("verify", "certainty-range", "finding %s has certainty %d", f.ID, f.Certainty)
		}
	}
	for _, s := range r.Sections {
		for i := 1; i < len(s.Content); i++ {
			if s.Content[i].Type == model.ContentText && s.Content[i-1].Type == model.ContentText {
				return violation("verify", "no-adjacent-text", "section %s has adjacent text items at %d", s.ID, i)
			}
		}
	}
	if got, want := r.Meta.OverallCertainty, r.OverallCertainty(); got != want {
		return violation("verify", "aggregate-consistent", "meta says %d, findings say %d", got, want)
	}
	return nil
}

// reportStructure holds for drafts and final reports alike.
func reportStructure(r *model.Report, stage string) error {
	if r == nil {
		return violation(stage, "report-present", "nil report")
	}
	if len(r.Sections) == 0 {
		return violation(stage, "sections-present", "no sections")
	}

	sections := make(map[string]bool, len(r.Sections))
	for _, s := range r.Sections {
		if s.ID == "" {
			return violation(stage, "section-ids", "section with empty id")
		}
		if sections[s.ID] {
			return violation(stage, "section-ids", "duplicate section id %q", s.ID)
		}
		sections[s.ID] = true
	}

	ids := make(map[string]bool, len(r.Findings))
	for _, f := range r.Findings {
		if f.ID == "" {
			return violation(stage, "finding-ids", "finding with empty id")
		}
		if ids[f.ID] {
			return violation(stage, "finding-ids", "duplicate finding id %q", f.ID)
		}
		ids[f.ID] = true
		if !sections[f.Section] {
			return violation(stage, "findings-homed", "finding %s references unknown section %q", f.ID, f.Section)
		}
	}

	for _, s := range r.Sections {
		for _, item := range s.Content {
			if item.Type == model.ContentFinding && !ids[item.ID] {
				return violation(stage, "refs-resolvable", "section %s references unknown finding %q", s.ID, item.ID)
			}
		}
	}
	return nil
}
