package model

import "time"

// Report represents the complete evidence-linked report produced by the
// pipeline. It is exclusively owned by the active run until handed to a
// persistence layer; no two stages mutate it concurrently.
type Report struct {
	Meta     ReportMeta `json:"meta"`
	Sections []Section  `json:"sections"`
	Findings []Finding  `json:"findings"`

	// Run metadata filled in by the orchestrator, not by any stage.
	Query       string        `json:"query,omitempty"`
	Profile     DomainProfile `json:"profile,omitempty"`
	GeneratedAt time.Time     `json:"generatedAt,omitempty"`
}

// ReportMeta holds report-level metadata and the aggregate certainty.
type ReportMeta struct {
	Title            string    `json:"title"`
	Rating           string    `json:"rating,omitempty"`           // One of the profile's rating options
	KeyStats         []KeyStat `json:"keyStats,omitempty"`         // Headline figures
	OverallCertainty int       `json:"overallCertainty"`           // Rounded mean of finding certainties
	Methodology      string    `json:"methodology,omitempty"`      // How the report was produced
}

// KeyStat is a single labeled headline figure.
type KeyStat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section is one titled block of the report. Concatenating its content in
// order (substituting finding references with finding text) yields prose.
type Section struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Content []ContentItem `json:"content"`
}

// Content item types.
const (
	ContentFinding = "finding"
	ContentText    = "text"
	ContentBreak   = "break"
)

// ContentItem is a tagged union: a finding reference, literal text, or a
// paragraph break. No two adjacent persisted items may both be text.
type ContentItem struct {
	Type  string `json:"type"`            // "finding", "text", or "break"
	ID    string `json:"id,omitempty"`    // Finding id when Type is "finding"
	Value string `json:"value,omitempty"` // Literal text when Type is "text"
}

// Finding is a single verifiable claim with its certainty and evidence.
// IDs follow the form "f<N>" and are stable across verification.
type Finding struct {
	ID          string      `json:"id"`
	Section     string      `json:"section"`             // Section.ID this finding belongs to
	Text        string      `json:"text"`                // The claim as it appears in prose
	Certainty   int         `json:"certainty,omitempty"` // 1-99, assigned only by the verifier
	Explanation Explanation `json:"explanation"`
}

// Explanation carries the evidence for and against a finding.
type Explanation struct {
	Title              string         `json:"title"`
	Text               string         `json:"text"`
	SupportingEvidence []EvidenceItem `json:"supportingEvidence"`
	ContraryEvidence   []EvidenceItem `json:"contraryEvidence"`
}

// DefaultCertainty is substituted for a missing certainty score so that the
// aggregate mean is always computable.
const DefaultCertainty = 50

// FindingIDs returns the set of finding ids present in the report.
func (r *Report) FindingIDs() map[string]bool {
	ids := make(map[string]bool, len(r.Findings))
	for _, f := range r.Findings {
		ids[f.ID] = true
	}
	return ids
}

// FindingByID returns the finding with the given id, or nil.
func (r *Report) FindingByID(id string) *Finding {
	for i := range r.Findings {
		if r.Findings[i].ID == id {
			return &r.Findings[i]
		}
	}
	return nil
}

// OverallCertainty computes the rounded mean certainty over all findings,
// substituting DefaultCertainty for any unset score. Zero findings yield 0.
func (r *Report) OverallCertainty() int {
	if len(r.Findings) == 0 {
		return 0
	}
	sum := 0
	for _, f := range r.Findings {
		c := f.Certainty
		if c == 0 {
			c = DefaultCertainty
		}
		sum += c
	}
	// Round half up.
	return (sum + len(r.Findings)/2) / len(r.Findings)
}

// RecomputeOverallCertainty refreshes meta.overallCertainty from the current
// findings. Must be called whenever findings change.
func (r *Report) RecomputeOverallCertainty() {
	r.Meta.OverallCertainty = r.OverallCertainty()
}

// FindingRefs returns the number of finding references in the section.
func (s *Section) FindingRefs() int {
	n := 0
	for _, item := range s.Content {
		if item.Type == ContentFinding {
			n++
		}
	}
	return n
}
