package verify

import (
	"context"
	"fmt"
	"testing"

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

// draftReport builds a three-finding draft: cover section plus one content
// section referencing f1, f2, f3 with connective text between them.
func draftReport() *model.Report {
	return &model.Report{
		Meta: model.ReportMeta{Title: "Draft"},
		Sections: []model.Section{
			{ID: "cover", Title: "Cover", Content: []model.ContentItem{
				{Type: model.ContentText, Value: "Draft"},
			}},
			{ID: "analysis", Title: "Analysis", Content: []model.ContentItem{
				{Type: model.ContentText, Value: "First,"},
				{Type: model.ContentFinding, ID: "f1"},
				{Type: model.ContentText, Value: "and then"},
				{Type: model.ContentFinding, ID: "f2"},
				{Type: model.ContentText, Value: "but also"},
				{Type: model.ContentFinding, ID: "f3"},
				{Type: model.ContentText, Value: "in closing."},
			}},
			{ID: "empty_tail", Title: "Tail", Content: []model.ContentItem{
				{Type: model.ContentFinding, ID: "f3"},
			}},
		},
		Findings: []model.Finding{
			{ID: "f1", Section: "analysis", Text: "strong claim", Explanation: model.Explanation{
				SupportingEvidence: []model.EvidenceItem{{Source: "10-K", Quote: "q", URL: "https://example.com", Verified: true}},
				ContraryEvidence:   []model.EvidenceItem{},
			}},
			{ID: "f2", Section: "analysis", Text: "medium claim", Explanation: model.Explanation{
				SupportingEvidence: []model.EvidenceItem{},
				ContraryEvidence:   []model.EvidenceItem{},
			}},
			{ID: "f3", Section: "analysis", Text: "weak claim", Explanation: model.Explanation{
				SupportingEvidence: []model.EvidenceItem{},
				ContraryEvidence:   []model.EvidenceItem{},
			}},
		},
	}
}

const verdictJSON = `{"findings": [
  {"id": "f1", "certainty": 96, "explanation": "directly supported"},
  {"id": "f2", "certainty": 40, "explanation": "thin support",
   "contraryEvidence": [{"source": "press", "quote": "disputed", "url": "general"}]},
  {"id": "f3", "certainty": 10, "explanation": "unsupported"}
]}`

func fixedVerifier(provider llm.Provider) *Verifier {
	return NewVerifier(provider, model.VerifyConfig{
		RemovalPolicy:    "fixed",
		RemovalThreshold: 25,
		CrossCheck:       true,
	})
}

func TestVerify_ScoresAndRemovesWeakFindings(t *testing.T) {
	provider := &mockProvider{response: &llm.Response{Text: verdictJSON, StopReason: llm.StopEnd}}
	report := fixedVerifier(provider).Verify(context.Background(), draftReport(), nil)

	if len(report.Findings) != 2 {
		t.Fatalf("expected 2 surviving findings, got %d", len(report.Findings))
	}
	if report.Findings[0].ID != "f1" || report.Findings[1].ID != "f2" {
		t.Errorf("expected f1 and f2 to survive, got %s and %s", report.Findings[0].ID, report.Findings[1].ID)
	}
	if report.Findings[0].Certainty != 96 || report.Findings[1].Certainty != 40 {
		t.Errorf("unexpected certainties: %d, %d", report.Findings[0].Certainty, report.Findings[1].Certainty)
	}
	if len(report.Findings[1].Explanation.ContraryEvidence) != 1 {
		t.Errorf("expected contrary evidence merged into f2")
	}

	// (96 + 40 + 1) / 2 = 68
	if report.Meta.OverallCertainty != 68 {
		t.Errorf("expected overall certainty 68, got %d", report.Meta.OverallCertainty)
	}
}

func TestVerify_CleansUpOrphans(t *testing.T) {
	provider := &mockProvider{response: &llm.Response{Text: verdictJSON, StopReason: llm.StopEnd}}
	report := fixedVerifier(provider).Verify(context.Background(), draftReport(), nil)

	// The section whose only reference was the removed f3 is gone; the title
	// section stays despite having no findings.
	if len(report.Sections) != 2 {
		t.Fatalf("expected 2 sections, got %d: %+v", len(report.Sections), report.Sections)
	}
	if report.Sections[0].ID != "cover" || report.Sections[1].ID != "analysis" {
		t.Errorf("unexpected sections: %s, %s", report.Sections[0].ID, report.Sections[1].ID)
	}

	// Removing f3 from analysis leaves "but also" adjacent to "in closing.";
	// they must be coalesced, and no dangling ref may remain.
	analysis := report.Sections[1]
	if analysis.FindingRefs() != 2 {
		t.Errorf("expected 2 finding refs, got %d", analysis.FindingRefs())
	}
	for i := 1; i < len(analysis.Content); i++ {
		if analysis.Content[i].Type == model.ContentText && analysis.Content[i-1].Type == model.ContentText {
			t.Errorf("adjacent text items at %d: %+v", i, analysis.Content)
		}
	}
	last := analysis.Content[len(analysis.Content)-1]
	if last.Value != "but also in closing." {
		t.Errorf("expected coalesced tail text, got %q", last.Value)
	}
}

func TestVerify_KeepsHomeSectionOfSurvivingFinding(t *testing.T) {
	// f1 and f2 are both homed in section "a", but f2 is only referenced from
	// section "b". Removing f1 empties "a" of references; "a" must survive
	// because it is still f2's declared home.
	report := &model.Report{
		Meta: model.ReportMeta{Title: "Draft"},
		Sections: []model.Section{
			{ID: "a", Title: "A", Content: []model.ContentItem{
				{Type: model.ContentFinding, ID: "f1"},
			}},
			{ID: "b", Title: "B", Content: []model.ContentItem{
				{Type: model.ContentFinding, ID: "f2"},
			}},
		},
		Findings: []model.Finding{
			{ID: "f1", Section: "a", Text: "weak claim", Explanation: model.Explanation{
				SupportingEvidence: []model.EvidenceItem{},
				ContraryEvidence:   []model.EvidenceItem{},
			}},
			{ID: "f2", Section: "a", Text: "strong claim", Explanation: model.Explanation{
				SupportingEvidence: []model.EvidenceItem{},
				ContraryEvidence:   []model.EvidenceItem{},
			}},
		},
	}

	provider := &mockProvider{response: &llm.Response{
		Text:       `{"findings": [{"id": "f1", "certainty": 10}, {"id": "f2", "certainty": 90}]}`,
		StopReason: llm.StopEnd,
	}}
	got := fixedVerifier(provider).Verify(context.Background(), report, nil)

	if len(got.Findings) != 1 || got.Findings[0].ID != "f2" {
		t.Fatalf("expected only f2 to survive, got %+v", got.Findings)
	}
	if got.Findings[0].Section != "a" {
		t.Fatalf("f2's home section changed to %q", got.Findings[0].Section)
	}

	homes := make(map[string]bool)
	for _, s := range got.Sections {
		homes[s.ID] = true
	}
	if !homes["a"] {
		t.Errorf("section \"a\" dropped while still the home of f2: %+v", got.Sections)
	}
}

func TestVerify_FindsVerdictBesideLargerObject(t *testing.T) {
	// The response quotes a larger JSON object back before the verdict. The
	// extraction rung must pick the candidate carrying scored findings, not
	// the longest one.
	// Longer than the verdict object, so longest-wins extraction would pick it.
	decoy := `{"excerpt": {"title": "Draft", "sections": ["cover", "analysis", "empty_tail"], "claims": ["strong claim", "medium claim", "weak claim"], "note": "the draft under review, quoted back verbatim for context before scoring", "evidence": [{"source": "10-K", "quote": "q", "url": "https://example.com"}], "rating": "none", "methodology": "adversarial cross-check of each claim against the evidence inventory"}}`
	provider := &mockProvider{response: &llm.Response{
		Text:       "Reviewing the draft below.\n" + decoy + "\nScores:\n" + verdictJSON,
		StopReason: llm.StopEnd,
	}}
	report := fixedVerifier(provider).Verify(context.Background(), draftReport(), nil)

	f1 := report.FindingByID("f1")
	if f1 == nil || f1.Certainty != 96 {
		t.Fatalf("expected the verdict to be applied, got %+v", f1)
	}
	if report.FindingByID("f3") != nil {
		t.Error("expected f3 removed under the threshold; the verdict was not applied")
	}
}

func TestVerify_FallbackOnUpstreamError(t *testing.T) {
	provider := &mockProvider{err: &llm.UpstreamError{Provider: "openai", StatusCode: 500, Message: "down"}}
	report := fixedVerifier(provider).Verify(context.Background(), draftReport(), nil)

	if report == nil {
		t.Fatal("verification must never return nil")
	}
	if len(report.Findings) != 3 {
		t.Fatalf("fallback must keep all findings, got %d", len(report.Findings))
	}
	for _, f := range report.Findings {
		if f.Certainty != FallbackCertainty {
			t.Errorf("finding %s: expected stand-in certainty %d, got %d", f.ID, FallbackCertainty, f.Certainty)
		}
		if len(f.Explanation.ContraryEvidence) != 0 {
			t.Errorf("finding %s: contrary evidence must stay empty on an error fallback, got %+v",
				f.ID, f.Explanation.ContraryEvidence)
		}
	}
	if report.Meta.Methodology == "" {
		t.Error("expected methodology note about fallback")
	}
	if report.Meta.OverallCertainty != FallbackCertainty {
		t.Errorf("expected overall certainty %d, got %d", FallbackCertainty, report.Meta.OverallCertainty)
	}
}

func TestVerify_FallbackOnGarbageResponse(t *testing.T) {
	provider := &mockProvider{response: &llm.Response{Text: "cannot comply", StopReason: llm.StopEnd}}
	report := fixedVerifier(provider).Verify(context.Background(), draftReport(), nil)

	if len(report.Findings) != 3 {
		t.Fatalf("fallback must keep all findings, got %d", len(report.Findings))
	}
	for _, f := range report.Findings {
		if len(f.Explanation.ContraryEvidence) != 0 {
			t.Errorf("finding %s: unparseable response must not add contrary notes", f.ID)
		}
	}
}

func TestVerify_FallbackOnEmptyVerdict(t *testing.T) {
	provider := &mockProvider{response: &llm.Response{Text: `{"findings": []}`, StopReason: llm.StopEnd}}
	report := fixedVerifier(provider).Verify(context.Background(), draftReport(), nil)

	if len(report.Findings) != 3 {
		t.Fatalf("an empty verdict must keep the draft's findings, got %d", len(report.Findings))
	}
	for _, f := range report.Findings {
		if f.Certainty != FallbackCertainty {
			t.Errorf("finding %s: expected stand-in certainty, got %d", f.ID, f.Certainty)
		}
		if len(f.Explanation.ContraryEvidence) == 0 {
			t.Errorf("finding %s: expected could-not-verify note on an empty verdict", f.ID)
		}
	}
	if report.Meta.Methodology == "" {
		t.Error("expected methodology note about the empty verdict")
	}
}

func TestVerify_UnknownVerdictIDsIgnored(t *testing.T) {
	provider := &mockProvider{response: &llm.Response{Text: `{"findings": [
	  {"id": "f1", "certainty": 90},
	  {"id": "f42", "certainty": 5}
	]}`, StopReason: llm.StopEnd}}
	report := fixedVerifier(provider).Verify(context.Background(), draftReport(), nil)

	f1 := report.FindingByID("f1")
	if f1 == nil || f1.Certainty != 90 {
		t.Fatalf("expected f1 scored 90, got %+v", f1)
	}
	// Skipped findings get the default certainty, not removal.
	f2 := report.FindingByID("f2")
	if f2 == nil || f2.Certainty != model.DefaultCertainty {
		t.Fatalf("expected unscored f2 to carry the default certainty, got %+v", f2)
	}
}

func TestVerify_RepairsTruncatedVerdict(t *testing.T) {
	truncated := `{"findings": [{"id": "f1", "certainty": 96}, {"id": "f2", "certainty": 40}, {"id": "f3", "certa`
	provider := &mockProvider{response: &llm.Response{Text: truncated, StopReason: llm.StopTruncated}}
	report := fixedVerifier(provider).Verify(context.Background(), draftReport(), nil)

	f1 := report.FindingByID("f1")
	if f1 == nil || f1.Certainty != 96 {
		t.Fatalf("expected repaired verdict to score f1 at 96, got %+v", f1)
	}
	// f3's entry was cut off; it keeps the default and survives the threshold.
	f3 := report.FindingByID("f3")
	if f3 == nil || f3.Certainty != model.DefaultCertainty {
		t.Fatalf("expected f3 to fall back to default certainty, got %+v", f3)
	}
}

func TestVerify_NeverRemovesEveryFinding(t *testing.T) {
	// All three findings score below the cutoff; the best one must survive.
	provider := &mockProvider{response: &llm.Response{Text: `{"findings": [
	  {"id": "f1", "certainty": 20},
	  {"id": "f2", "certainty": 12},
	  {"id": "f3", "certainty": 5}
	]}`, StopReason: llm.StopEnd}}
	report := fixedVerifier(provider).Verify(context.Background(), draftReport(), nil)

	if len(report.Findings) != 1 {
		t.Fatalf("expected 1 surviving finding, got %d", len(report.Findings))
	}
	if report.Findings[0].ID != "f1" || report.Findings[0].Certainty != 20 {
		t.Errorf("expected the highest-certainty finding to survive, got %+v", report.Findings[0])
	}
}

func TestRemovalThreshold(t *testing.T) {
	findings := func(scores ...int) []model.Finding {
		fs := make([]model.Finding, len(scores))
		for i, s := range scores {
			fs[i] = model.Finding{ID: fmt.Sprintf("f%d", i+1), Certainty: s}
		}
		return fs
	}

	tests := []struct {
		name     string
		cfg      model.VerifyConfig
		findings []model.Finding
		want     int
	}{
		{
			name:     "fixed policy uses configured cutoff",
			cfg:      model.VerifyConfig{RemovalPolicy: "fixed", RemovalThreshold: 25},
			findings: findings(96, 40, 10),
			want:     25,
		},
		{
			name:     "adaptive takes 25th percentile",
			cfg:      model.VerifyConfig{RemovalPolicy: "adaptive"},
			findings: findings(20, 30, 40, 50, 60, 70, 80, 90),
			want:     30,
		},
		{
			name:     "adaptive clamps low",
			cfg:      model.VerifyConfig{RemovalPolicy: "adaptive"},
			findings: findings(5, 8, 10, 90),
			want:     adaptiveFloor,
		},
		{
			name:     "adaptive clamps high",
			cfg:      model.VerifyConfig{RemovalPolicy: "adaptive"},
			findings: findings(80, 85, 90, 95),
			want:     adaptiveCeil,
		},
		{
			name:     "unknown policy falls back to fixed",
			cfg:      model.VerifyConfig{RemovalPolicy: "aggressive", RemovalThreshold: 30},
			findings: findings(96, 40, 10),
			want:     30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := removalThreshold(tt.cfg, tt.findings)
			if got != tt.want {
				t.Errorf("removalThreshold = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCleanup_IsIdempotent(t *testing.T) {
	provider := &mockProvider{response: &llm.Response{Text: verdictJSON, StopReason: llm.StopEnd}}
	report := fixedVerifier(provider).Verify(context.Background(), draftReport(), nil)

	before := fmt.Sprintf("%+v", report)
	cleanup(report)
	after := fmt.Sprintf("%+v", report)
	if before != after {
		t.Errorf("cleanup is not a fixed point:\nbefore: %s\nafter: %s", before, after)
	}
}
