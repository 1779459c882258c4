// Package score computes summary statistics and diagnostic signals over a
// verified report. Nothing here feeds back into the pipeline; the output is
// for readers deciding how far to trust the report.
package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/attestor/internal/model"
)

// Signal severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Signal types.
const (
	SignalCertaintySpread = "certainty_spread"
	SignalEvidenceSupport = "evidence_support"
	SignalVerifiedShare   = "verified_share"
	SignalAuthoritySpread = "authority_spread"
)

// Signal is one diagnostic observation about the report.
type Signal struct {
	Type        string                 `json:"type"`
	Severity    string                 `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Bucket is one tier of the certainty histogram.
type Bucket struct {
	Label string `json:"label"` // e.g., "95-99"
	Low   int    `json:"low"`
	High  int    `json:"high"`
	Count int    `json:"count"`
}

// Stats summarizes a verified report.
type Stats struct {
	Findings         int      `json:"findings"`
	OverallCertainty int      `json:"overallCertainty"`
	Confidence       string   `json:"confidence"` // "high", "medium", "low"
	Buckets          []Bucket `json:"buckets"`
	Signals          []Signal `json:"signals"`
}

// certaintyTiers mirror the verifier's scoring rubric.
var certaintyTiers = []Bucket{
	{Label: "95-99", Low: 95, High: 99},
	{Label: "80-94", Low: 80, High: 94},
	{Label: "65-79", Low: 65, High: 79},
	{Label: "50-64", Low: 50, High: 64},
	{Label: "25-49", Low: 25, High: 49},
	{Label: "1-24", Low: 1, High: 24},
}

// Scorer computes report statistics
type Scorer struct {
	minSupport int
}

// NewScorer creates a new scorer. minSupport is the evidence-per-finding
// target findings are measured against.
func NewScorer(minSupport int) *Scorer {
	if minSupport <= 0 {
		minSupport = 1
	}
	return &Scorer{minSupport: minSupport}
}

// Calculate computes statistics and signals for a verified report.
func (s *Scorer) Calculate(report *model.Report) Stats {
	stats := Stats{
		Findings:         len(report.Findings),
		OverallCertainty: report.OverallCertainty(),
		Buckets:          bucketize(report.Findings),
	}

	stats.Signals = append(stats.Signals, s.certaintySpread(stats.Buckets, len(report.Findings)))
	stats.Signals = append(stats.Signals, s.evidenceSupport(report.Findings))
	stats.Signals = append(stats.Signals, s.verifiedShare(report.Findings))
	if authSignal := s.authoritySpread(report); authSignal.Type != "" {
		stats.Signals = append(stats.Signals, authSignal)
	}

	stats.Confidence = determineConfidence(stats.OverallCertainty, len(report.Findings))
	return stats
}

func bucketize(findings []model.Finding) []Bucket {
	buckets := make([]Bucket, len(certaintyTiers))
	copy(buckets, certaintyTiers)
	for _, f := range findings {
		c := f.Certainty
		if c == 0 {
			c = model.DefaultCertainty
		}
		for i := range buckets {
			if c >= buckets[i].Low && c <= buckets[i].High {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

// certaintySpread flags reports dominated by weak findings.
func (s *Scorer) certaintySpread(buckets []Bucket, total int) Signal {
	if total == 0 {
		return Signal{
			Type:        SignalCertaintySpread,
			Severity:    SeverityCritical,
			Description: "No findings survived verification",
		}
	}

	weak := 0
	for _, b := range buckets {
		if b.High < 50 {
			weak += b.Count
		}
	}
	ratio := float64(weak) / float64(total)

	severity := SeverityInfo
	if ratio >= 0.5 {
		severity = SeverityCritical
	} else if ratio >= 0.25 {
		severity = SeverityWarning
	}

	return Signal{
		Type:        SignalCertaintySpread,
		Severity:    severity,
		Description: fmt.Sprintf("%d/%d findings below certainty 50", weak, total),
		Data: map[string]interface{}{
			"weak":  weak,
			"total": total,
			"ratio": ratio,
		},
	}
}

// evidenceSupport measures findings against the evidence-per-finding target.
func (s *Scorer) evidenceSupport(findings []model.Finding) Signal {
	if len(findings) == 0 {
		return Signal{
			Type:        SignalEvidenceSupport,
			Severity:    SeverityWarning,
			Description: "No findings to measure",
		}
	}

	supported := 0
	for _, f := range findings {
		if len(f.Explanation.SupportingEvidence) >= s.minSupport {
			supported++
		}
	}
	ratio := float64(supported) / float64(len(findings))

	severity := SeverityInfo
	if ratio < 0.5 {
		severity = SeverityCritical
	} else if ratio < 0.8 {
		severity = SeverityWarning
	}

	return Signal{
		Type:        SignalEvidenceSupport,
		Severity:    severity,
		Description: fmt.Sprintf("%d/%d findings meet the %d-item evidence target", supported, len(findings), s.minSupport),
		Data: map[string]interface{}{
			"supported":   supported,
			"total":       len(findings),
			"min_support": s.minSupport,
			"ratio":       ratio,
		},
	}
}

// verifiedShare measures how much cited evidence traces to a real search
// result. Ungrounded runs score zero here, which is the honest answer.
func (s *Scorer) verifiedShare(findings []model.Finding) Signal {
	total := 0
	verified := 0
	for _, f := range findings {
		for _, ev := range f.Explanation.SupportingEvidence {
			total++
			if ev.Verified {
				verified++
			}
		}
	}

	if total == 0 {
		return Signal{
			Type:        SignalVerifiedShare,
			Severity:    SeverityCritical,
			Description: "No supporting evidence cited",
		}
	}

	ratio := float64(verified) / float64(total)
	severity := SeverityInfo
	if ratio == 0 {
		severity = SeverityWarning
	}

	return Signal{
		Type:        SignalVerifiedShare,
		Severity:    severity,
		Description: fmt.Sprintf("Verified evidence: %d/%d (%.0f%%)", verified, total, ratio*100),
		Data: map[string]interface{}{
			"verified": verified,
			"total":    total,
			"ratio":    ratio,
		},
	}
}

// authoritySpread counts cited evidence per tier of the profile's source
// hierarchy. Tier 1 is the most authoritative.
func (s *Scorer) authoritySpread(report *model.Report) Signal {
	hierarchy := report.Profile.SourceHierarchy
	if len(hierarchy) == 0 {
		return Signal{}
	}

	counts := make([]int, len(hierarchy)+1) // Last slot collects unranked
	total := 0
	for _, f := range report.Findings {
		for _, ev := range f.Explanation.SupportingEvidence {
			counts[authorityRank(ev.Authority, hierarchy)]++
			total++
		}
	}
	if total == 0 {
		return Signal{}
	}

	severity := SeverityInfo
	if counts[0] == 0 {
		severity = SeverityWarning
	}

	parts := make([]string, 0, len(hierarchy))
	data := map[string]interface{}{"total": total, "unranked": counts[len(hierarchy)]}
	for i := range hierarchy {
		parts = append(parts, fmt.Sprintf("tier%d=%d", i+1, counts[i]))
		data[fmt.Sprintf("tier_%d", i+1)] = counts[i]
	}

	return Signal{
		Type:        SignalAuthoritySpread,
		Severity:    severity,
		Description: "Authority distribution: " + strings.Join(parts, ", "),
		Data:        data,
	}
}

// authorityRank maps an evidence authority label to its hierarchy index, or
// len(hierarchy) when it matches no tier. Matching is case-insensitive and
// tolerant of partial labels in either direction.
func authorityRank(authority string, hierarchy []string) int {
	a := strings.ToLower(strings.TrimSpace(authority))
	if a == "" {
		return len(hierarchy)
	}
	for i, tier := range hierarchy {
		t := strings.ToLower(tier)
		if a == t || strings.Contains(t, a) || strings.Contains(a, t) {
			return i
		}
	}
	return len(hierarchy)
}

// determineConfidence maps the aggregate certainty to a coarse label.
func determineConfidence(overall, findings int) string {
	if findings < 3 {
		return "low"
	}
	if overall >= 80 {
		return "high"
	}
	if overall >= 60 {
		return "medium"
	}
	return "low"
}
