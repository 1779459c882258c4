package verify

import (
	"strings"

	"github.com/ppiankov/attestor/internal/model"
)

// cleanup removes the orphans finding removal leaves behind and refreshes
// the aggregate certainty. Safe to run repeatedly; a clean report is a
// fixed point.
func cleanup(report *model.Report) {
	ids := report.FindingIDs()

	for i := range report.Sections {
		section := &report.Sections[i]
		section.Content = dropDanglingRefs(section.Content, ids)
		section.Content = coalesceText(section.Content)
	}

	report.Sections = dropEmptySections(report.Sections, report.Findings)
	report.RecomputeOverallCertainty()
}

// dropDanglingRefs removes finding references whose finding no longer exists.
func dropDanglingRefs(content []model.ContentItem, ids map[string]bool) []model.ContentItem {
	kept := content[:0]
	for _, item := range content {
		if item.Type == model.ContentFinding && !ids[item.ID] {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}

// coalesceText merges runs of adjacent text items into one, so that removal
// never leaves two text items touching.
func coalesceText(content []model.ContentItem) []model.ContentItem {
	var out []model.ContentItem
	for _, item := range content {
		if item.Type == model.ContentText && len(out) > 0 && out[len(out)-1].Type == model.ContentText {
			out[len(out)-1].Value = joinText(out[len(out)-1].Value, item.Value)
			continue
		}
		out = append(out, item)
	}
	return out
}

func joinText(a, b string) string {
	a = strings.TrimRight(a, " ")
	b = strings.TrimLeft(b, " ")
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}

// dropEmptySections removes sections left with zero finding references,
// except title sections, which carry prose only, and sections that remain
// the declared home of a surviving finding. Dropping a home section would
// leave the finding pointing at a section that no longer exists.
func dropEmptySections(sections []model.Section, findings []model.Finding) []model.Section {
	homes := make(map[string]bool, len(findings))
	for _, f := range findings {
		homes[f.Section] = true
	}

	kept := sections[:0]
	for _, s := range sections {
		if s.FindingRefs() == 0 && !model.TitleSectionIDs[s.ID] && !homes[s.ID] {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}
