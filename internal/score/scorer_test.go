package score

import (
	"testing"

	"github.com/ppiankov/attestor/internal/model"
)

func scoredReport() *model.Report {
	ev := func(verified bool, authority string) model.EvidenceItem {
		return model.EvidenceItem{Source: "s", Quote: "q", URL: "general", Verified: verified, Authority: authority}
	}
	return &model.Report{
		Profile: model.DomainProfile{
			SourceHierarchy: []string{"SEC filings", "analyst notes", "press"},
		},
		Sections: []model.Section{{ID: "analysis", Title: "Analysis"}},
		Findings: []model.Finding{
			{ID: "f1", Section: "analysis", Certainty: 96, Explanation: model.Explanation{
				SupportingEvidence: []model.EvidenceItem{ev(true, "SEC filings"), ev(true, "press")},
			}},
			{ID: "f2", Section: "analysis", Certainty: 82, Explanation: model.Explanation{
				SupportingEvidence: []model.EvidenceItem{ev(false, "analyst notes"), ev(false, "")},
			}},
			{ID: "f3", Section: "analysis", Certainty: 55, Explanation: model.Explanation{
				SupportingEvidence: []model.EvidenceItem{ev(false, "press")},
			}},
			{ID: "f4", Section: "analysis", Certainty: 30, Explanation: model.Explanation{
				SupportingEvidence: []model.EvidenceItem{},
			}},
		},
	}
}

func TestScorer_Calculate(t *testing.T) {
	stats := NewScorer(2).Calculate(scoredReport())

	if stats.Findings != 4 {
		t.Errorf("expected 4 findings, got %d", stats.Findings)
	}
	// (96 + 82 + 55 + 30 + 2) / 4 = 66
	if stats.OverallCertainty != 66 {
		t.Errorf("expected overall certainty 66, got %d", stats.OverallCertainty)
	}
	if stats.Confidence != "medium" {
		t.Errorf("expected medium confidence, got %s", stats.Confidence)
	}

	byLabel := make(map[string]int)
	for _, b := range stats.Buckets {
		byLabel[b.Label] = b.Count
	}
	if byLabel["95-99"] != 1 || byLabel["80-94"] != 1 || byLabel["50-64"] != 1 || byLabel["25-49"] != 1 {
		t.Errorf("unexpected bucket counts: %v", byLabel)
	}

	bySignal := make(map[string]Signal)
	for _, sig := range stats.Signals {
		bySignal[sig.Type] = sig
	}

	// 1 of 4 findings below 50 -> warning
	if bySignal[SignalCertaintySpread].Severity != SeverityWarning {
		t.Errorf("expected certainty spread warning, got %+v", bySignal[SignalCertaintySpread])
	}
	// 2 of 4 findings meet the 2-item target -> warning
	if bySignal[SignalEvidenceSupport].Severity != SeverityWarning {
		t.Errorf("expected evidence support warning, got %+v", bySignal[SignalEvidenceSupport])
	}
	// 2 of 5 evidence items verified -> info
	if bySignal[SignalVerifiedShare].Severity != SeverityInfo {
		t.Errorf("expected verified share info, got %+v", bySignal[SignalVerifiedShare])
	}
	// Tier 1 evidence present -> info
	if bySignal[SignalAuthoritySpread].Severity != SeverityInfo {
		t.Errorf("expected authority spread info, got %+v", bySignal[SignalAuthoritySpread])
	}
}

func TestScorer_EmptyReport(t *testing.T) {
	stats := NewScorer(3).Calculate(&model.Report{})

	if stats.Findings != 0 {
		t.Errorf("expected 0 findings, got %d", stats.Findings)
	}
	if stats.Confidence != "low" {
		t.Errorf("expected low confidence, got %s", stats.Confidence)
	}

	var spread *Signal
	for i := range stats.Signals {
		if stats.Signals[i].Type == SignalCertaintySpread {
			spread = &stats.Signals[i]
		}
	}
	if spread == nil || spread.Severity != SeverityCritical {
		t.Errorf("expected critical certainty spread for empty report, got %+v", spread)
	}
}

func TestScorer_UngroundedRunHasZeroVerifiedShare(t *testing.T) {
	report := scoredReport()
	for i := range report.Findings {
		for j := range report.Findings[i].Explanation.SupportingEvidence {
			report.Findings[i].Explanation.SupportingEvidence[j].Verified = false
		}
	}

	stats := NewScorer(1).Calculate(report)
	for _, sig := range stats.Signals {
		if sig.Type == SignalVerifiedShare && sig.Severity != SeverityWarning {
			t.Errorf("expected verified share warning for ungrounded run, got %+v", sig)
		}
	}
}

func TestAuthorityRank(t *testing.T) {
	hierarchy := []string{"SEC filings", "analyst notes", "press"}

	tests := []struct {
		authority string
		want      int
	}{
		{"SEC filings", 0},
		{"sec filings", 0},
		{"analyst", 1}, // Partial label still ranks
		{"established press coverage", 2},
		{"blog comment", 3}, // Unranked
		{"", 3},
	}

	for _, tt := range tests {
		if got := authorityRank(tt.authority, hierarchy); got != tt.want {
			t.Errorf("authorityRank(%q) = %d, want %d", tt.authority, got, tt.want)
		}
	}
}

func TestDetermineConfidence(t *testing.T) {
	tests := []struct {
		overall  int
		findings int
		want     string
	}{
		{90, 10, "high"},
		{70, 10, "medium"},
		{40, 10, "low"},
		{90, 2, "low"}, // Too few findings caps confidence
	}

	for _, tt := range tests {
		if got := determineConfidence(tt.overall, tt.findings); got != tt.want {
			t.Errorf("determineConfidence(%d, %d) = %s, want %s", tt.overall, tt.findings, got, tt.want)
		}
	}
}
