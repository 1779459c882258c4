package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/attestor/internal/model"
	"github.com/ppiankov/attestor/internal/score"
)

// Renderer renders reports to JSON and Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// RenderMarkdown writes the report as Markdown: section prose with finding
// text substituted inline and certainty markers, then a findings appendix
// with the evidence behind each claim.
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", report.Meta.Title)
	if report.Meta.Rating != "" {
		fmt.Fprintf(&b, "**Rating:** %s  \n", report.Meta.Rating)
	}
	fmt.Fprintf(&b, "**Overall certainty:** %d/99\n\n", report.Meta.OverallCertainty)

	if len(report.Meta.KeyStats) > 0 {
		b.WriteString("| | |\n|---|---|\n")
		for _, ks := range report.Meta.KeyStats {
			fmt.Fprintf(&b, "| %s | %s |\n", ks.Label, ks.Value)
		}
		b.WriteString("\n")
	}

	for _, section := range report.Sections {
		fmt.Fprintf(&b, "## %s\n\n", section.Title)
		b.WriteString(renderContent(report, section.Content))
		b.WriteString("\n")
	}

	if len(report.Findings) > 0 {
		b.WriteString("## Findings\n\n")
		for _, f := range report.Findings {
			fmt.Fprintf(&b, "### %s (certainty %d)\n\n%s\n\n", f.ID, f.Certainty, f.Text)
			if f.Explanation.Text != "" {
				fmt.Fprintf(&b, "%s\n\n", f.Explanation.Text)
			}
			renderEvidence(&b, "Supporting", f.Explanation.SupportingEvidence)
			renderEvidence(&b, "Contrary", f.Explanation.ContraryEvidence)
		}
	}

	if report.Meta.Methodology != "" {
		fmt.Fprintf(&b, "## Methodology\n\n%s\n\n", report.Meta.Methodology)
	}

	if r.includeFooter {
		fmt.Fprintf(&b, "---\n\nGenerated by Attestor")
		if !report.GeneratedAt.IsZero() {
			fmt.Fprintf(&b, " at %s", report.GeneratedAt.Format("2006-01-02 15:04 UTC"))
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// renderContent flattens a section's content into prose: finding references
// become the finding text with a certainty marker, breaks become paragraph
// boundaries.
func renderContent(report *model.Report, content []model.ContentItem) string {
	var b strings.Builder
	for _, item := range content {
		switch item.Type {
		case model.ContentText:
			b.WriteString(item.Value)
			b.WriteString(" ")
		case model.ContentFinding:
			if f := report.FindingByID(item.ID); f != nil {
				fmt.Fprintf(&b, "%s [%d] ", f.Text, f.Certainty)
			}
		case model.ContentBreak:
			b.WriteString("\n\n")
		}
	}
	return strings.TrimRight(b.String(), " ") + "\n"
}

func renderEvidence(b *strings.Builder, label string, items []model.EvidenceItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s evidence:\n\n", label)
	for _, ev := range items {
		marker := ""
		if ev.Verified {
			marker = " ✓"
		}
		fmt.Fprintf(b, "- %q, %s (%s)%s\n", ev.Quote, ev.Source, ev.URL, marker)
	}
	b.WriteString("\n")
}

// RenderSummary prints a one-screen summary to stdout.
func (r *Renderer) RenderSummary(report *model.Report, stats score.Stats) {
	fmt.Printf("\n%s\n", report.Meta.Title)
	fmt.Println(strings.Repeat("=", len(report.Meta.Title)))
	if report.Meta.Rating != "" {
		fmt.Printf("Rating:     %s\n", report.Meta.Rating)
	}
	fmt.Printf("Certainty:  %d/99 (%s confidence)\n", stats.OverallCertainty, stats.Confidence)
	fmt.Printf("Findings:   %d across %d sections\n", stats.Findings, len(report.Sections))

	for _, bucket := range stats.Buckets {
		if bucket.Count == 0 {
			continue
		}
		fmt.Printf("  %-6s %s (%d)\n", bucket.Label, strings.Repeat("█", bucket.Count), bucket.Count)
	}

	for _, sig := range stats.Signals {
		if sig.Severity == score.SeverityInfo {
			continue
		}
		fmt.Printf("! [%s] %s\n", sig.Severity, sig.Description)
	}
	fmt.Println()
}
