// Package synth turns collected evidence into a draft report: sections of
// interleaved prose and finding references, each finding citing the evidence
// that supports it. Certainty is left unset; scoring belongs to the verifier.
package synth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/attestor/internal/jsonx"
	"github.com/ppiankov/attestor/internal/llm"
	"github.com/ppiankov/attestor/internal/model"
)

// Synthesizer produces a draft report from evidence.
type Synthesizer struct {
	provider llm.Provider
	cfg      model.SynthConfig
}

// NewSynthesizer creates a new synthesizer
func NewSynthesizer(provider llm.Provider, cfg model.SynthConfig) *Synthesizer {
	return &Synthesizer{provider: provider, cfg: cfg}
}

// Synthesize drafts a report for the query from the evidence under the
// profile's layout. The returned draft satisfies the structural contract:
// profile section ids only, resolvable finding references, non-nil
// supporting evidence, empty contrary evidence, and unset certainty.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, profile model.DomainProfile, evidence []model.EvidenceItem) (*model.Report, error) {
	resp, err := s.provider.Invoke(ctx, llm.Request{
		System: synthSystem,
		User:   buildSynthPrompt(query, profile, evidence, s.cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize: %w", err)
	}

	report, err := parseDraft(resp)
	if err != nil {
		return nil, err
	}

	normalize(report, profile)
	return report, nil
}

// parseDraft runs the object resilience ladder: strip fences, parse as-is,
// repair if truncated, then extract an embedded object. Repair runs before
// extraction so a truncated-but-repairable response is not mistaken for
// commentary around a smaller complete object.
func parseDraft(resp *llm.Response) (*model.Report, error) {
	cleaned := jsonx.StripFences(resp.Text)

	var report model.Report
	if err := json.Unmarshal([]byte(cleaned), &report); err == nil && usable(&report) {
		return &report, nil
	}

	if resp.StopReason == llm.StopTruncated {
		if repaired := jsonx.RepairTruncated(cleaned); repaired != "" {
			report = model.Report{}
			if err := json.Unmarshal([]byte(repaired), &report); err == nil && usable(&report) {
				return &report, nil
			}
		}
	}

	if candidate := jsonx.ExtractObject(cleaned); candidate != "" {
		report = model.Report{}
		if err := json.Unmarshal([]byte(candidate), &report); err == nil && usable(&report) {
			return &report, nil
		}
	}

	return nil, &jsonx.ParseError{
		Stage:      "synth",
		StopReason: string(resp.StopReason),
		Raw:        resp.Text,
	}
}

// usable rejects drafts with nothing to verify.
func usable(r *model.Report) bool {
	return len(r.Findings) > 0 && len(r.Sections) > 0
}

// normalize enforces the draft's structural contract in place.
func normalize(report *model.Report, profile model.DomainProfile) {
	// Finding ids: assign f<N> where missing, then index.
	next := 1
	seen := make(map[string]bool, len(report.Findings))
	for i := range report.Findings {
		f := &report.Findings[i]
		if f.ID == "" || seen[f.ID] {
			for ; ; next++ {
				id := fmt.Sprintf("f%d", next)
				if !seen[id] {
					f.ID = id
					break
				}
			}
		}
		seen[f.ID] = true

		// Certainty and contrary evidence belong to the verifier.
		f.Certainty = 0
		f.Explanation.ContraryEvidence = []model.EvidenceItem{}
		if f.Explanation.SupportingEvidence == nil {
			f.Explanation.SupportingEvidence = []model.EvidenceItem{}
		}
	}

	// Sections: keep profile sections only, in profile order, with profile
	// titles. Draft content for unknown section ids is dropped.
	byID := make(map[string]*model.Section, len(report.Sections))
	for i := range report.Sections {
		byID[report.Sections[i].ID] = &report.Sections[i]
	}
	sections := make([]model.Section, 0, len(profile.Sections))
	valid := make(map[string]bool, len(profile.Sections))
	for _, spec := range profile.Sections {
		valid[spec.ID] = true
		section := model.Section{ID: spec.ID, Title: spec.Title}
		if drafted, ok := byID[spec.ID]; ok {
			section.Content = drafted.Content
		}
		sections = append(sections, section)
	}
	report.Sections = sections

	// Findings in an unknown section move to the first non-title section.
	home := firstContentSection(profile)
	for i := range report.Findings {
		if !valid[report.Findings[i].Section] {
			report.Findings[i].Section = home
		}
	}

	// Drop content references to findings that do not exist.
	ids := report.FindingIDs()
	for i := range report.Sections {
		content := report.Sections[i].Content[:0]
		for _, item := range report.Sections[i].Content {
			if item.Type == model.ContentFinding && !ids[item.ID] {
				continue
			}
			content = append(content, item)
		}
		report.Sections[i].Content = content
	}
}

func firstContentSection(profile model.DomainProfile) string {
	for _, spec := range profile.Sections {
		if !model.TitleSectionIDs[spec.ID] {
			return spec.ID
		}
	}
	if len(profile.Sections) > 0 {
		return profile.Sections[0].ID
	}
	return ""
}
