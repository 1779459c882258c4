package synth

import (
	"context"
	"errors"
	"testing"

	"github.com/ppiankov/attestor/internal/jsonx"
	"github.com/ppiankov/attestor/internal/llm"
	"github.com/ppiankov/attestor/internal/model"
)

// mockProvider implements llm.Provider
type mockProvider struct {
	response *llm.Response
	err      error
}

func (m *mockProvider) Name() string                         { return "mock" }
func (m *mockProvider) IsAvailable(ctx context.Context) bool { return true }

func (m *mockProvider) Invoke(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

var testProfile = model.DomainProfile{
	Domain:          "equity_research",
	SourceHierarchy: []string{"SEC filings", "press"},
	Sections: []model.SectionSpec{
		{ID: "cover", Title: "Cover"},
		{ID: "thesis", Title: "Investment Thesis"},
		{ID: "risks", Title: "Risks"},
	},
	RatingOptions: []string{"buy", "hold", "sell"},
}

var testEvidence = []model.EvidenceItem{
	{Source: "10-K", Quote: "Revenue grew 60%", URL: "https://example.com/10k", Verified: true},
	{Source: "Press", Quote: "Margins under pressure", URL: "general"},
}

const draftJSON = `{
  "meta": {"title": "NVDA Analysis", "rating": "buy"},
  "sections": [
    {"id": "cover", "title": "Cover", "content": [{"type": "text", "value": "NVDA Analysis"}]},
    {"id": "thesis", "title": "Thesis", "content": [
      {"type": "text", "value": "Growth remains strong."},
      {"type": "finding", "id": "f1"},
      {"type": "break"},
      {"type": "finding", "id": "f99"}
    ]},
    {"id": "extra", "title": "Not In Profile", "content": [{"type": "text", "value": "dropped"}]}
  ],
  "findings": [
    {"id": "f1", "section": "thesis", "text": "Revenue grew 60% year over year", "certainty": 80,
     "explanation": {"title": "Revenue growth", "text": "Backed by the filing",
       "supportingEvidence": [{"source": "10-K", "quote": "Revenue grew 60%", "url": "https://example.com/10k", "verified": true}],
       "contraryEvidence": [{"source": "x", "quote": "leftover", "url": "general"}]}},
    {"id": "", "section": "unknown_section", "text": "Margins face pressure",
     "explanation": {"title": "Margins", "text": "Press reporting"}}
  ]
}`

func TestSynthesize_NormalizesDraft(t *testing.T) {
	provider := &mockProvider{response: &llm.Response{Text: draftJSON, StopReason: llm.StopEnd}}
	s := NewSynthesizer(provider, model.SynthConfig{MinSupport: 1, MinFindings: 2, MaxFindings: 5})

	report, err := s.Synthesize(context.Background(), "Analyze NVIDIA (NVDA)", testProfile, testEvidence)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	// Sections follow the profile: ids, order, titles; unknown sections dropped.
	if len(report.Sections) != 3 {
		t.Fatalf("expected 3 profile sections, got %d", len(report.Sections))
	}
	if report.Sections[1].ID != "thesis" || report.Sections[1].Title != "Investment Thesis" {
		t.Errorf("expected profile section id/title, got %s/%s", report.Sections[1].ID, report.Sections[1].Title)
	}

	// The dangling f99 reference is dropped, f1 survives.
	thesis := report.Sections[1]
	if thesis.FindingRefs() != 1 {
		t.Errorf("expected 1 resolvable finding ref, got %d", thesis.FindingRefs())
	}

	if len(report.Findings) != 2 {
		t.Fatalf("expected 2 findings, got %d", len(report.Findings))
	}
	for _, f := range report.Findings {
		if f.Certainty != 0 {
			t.Errorf("draft finding %s has certainty %d; scoring belongs to the verifier", f.ID, f.Certainty)
		}
		if len(f.Explanation.ContraryEvidence) != 0 {
			t.Errorf("draft finding %s has contrary evidence", f.ID)
		}
		if f.Explanation.SupportingEvidence == nil {
			t.Errorf("finding %s has nil supporting evidence", f.ID)
		}
	}

	// The unnamed finding got a fresh unique id and a valid home section.
	second := report.Findings[1]
	if second.ID != "f2" {
		t.Errorf("expected assigned id f2, got %q", second.ID)
	}
	if second.Section != "thesis" {
		t.Errorf("expected reassignment to first non-title section, got %q", second.Section)
	}
}

func TestSynthesize_RepairsTruncatedDraft(t *testing.T) {
	truncated := `{"meta": {"title": "T"}, "sections": [{"id": "thesis", "title": "Thesis", "content": [{"type": "finding", "id": "f1"}]}], "findings": [{"id": "f1", "section": "thesis", "text": "claim", "explanation": {"title": "t", "text": "x", "supportingEvidence": [], "contraryEvidence": []}}], "unfinished_ke`
	provider := &mockProvider{response: &llm.Response{Text: truncated, StopReason: llm.StopTruncated}}
	s := NewSynthesizer(provider, model.SynthConfig{})

	report, err := s.Synthesize(context.Background(), "q", testProfile, testEvidence)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if len(report.Findings) != 1 || report.Findings[0].Text != "claim" {
		t.Errorf("expected repaired draft with 1 finding, got %+v", report.Findings)
	}
}

func TestSynthesize_ExtractsEmbeddedObject(t *testing.T) {
	provider := &mockProvider{response: &llm.Response{
		Text:       "Here is the draft:\n" + draftJSON,
		StopReason: llm.StopEnd,
	}}
	s := NewSynthesizer(provider, model.SynthConfig{})

	report, err := s.Synthesize(context.Background(), "q", testProfile, testEvidence)
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if report.Meta.Title != "NVDA Analysis" {
		t.Errorf("unexpected title %q", report.Meta.Title)
	}
}

func TestSynthesize_ParseErrorPropagates(t *testing.T) {
	provider := &mockProvider{response: &llm.Response{Text: "no report here", StopReason: llm.StopEnd}}
	s := NewSynthesizer(provider, model.SynthConfig{})

	_, err := s.Synthesize(context.Background(), "q", testProfile, testEvidence)
	var parseErr *jsonx.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if parseErr.Stage != "synth" {
		t.Errorf("expected synth stage, got %s", parseErr.Stage)
	}
}

func TestSynthesize_EmptyDraftIsParseError(t *testing.T) {
	// Valid JSON but nothing to verify
	provider := &mockProvider{response: &llm.Response{
		Text:       `{"meta": {"title": "T"}, "sections": [], "findings": []}`,
		StopReason: llm.StopEnd,
	}}
	s := NewSynthesizer(provider, model.SynthConfig{})

	_, err := s.Synthesize(context.Background(), "q", testProfile, testEvidence)
	var parseErr *jsonx.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected ParseError for empty draft, got %v", err)
	}
}

func TestSynthesize_UpstreamErrorPropagates(t *testing.T) {
	provider := &mockProvider{err: &llm.UpstreamError{Provider: "openai", StatusCode: 429, Message: "slow down"}}
	s := NewSynthesizer(provider, model.SynthConfig{})

	_, err := s.Synthesize(context.Background(), "q", testProfile, testEvidence)
	var upstream *llm.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}
