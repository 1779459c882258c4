// Package verify adversarially scores a draft report. Each finding gets a
// certainty score, weak findings are removed under the configured policy, and
// the report is cleaned of the orphans removal leaves behind. Verification
// never fails: every fallback rung still yields a valid report, down to the
// terminal rung that returns the draft with a stand-in certainty.
package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ppiankov/attestor/internal/jsonx"
	"github.com/ppiankov/attestor/internal/llm"
	"github.com/ppiankov/attestor/internal/model"
)

// FallbackCertainty is assigned to every finding when verification cannot
// produce scores at all. Deliberately above DefaultCertainty: an unverified
// draft is still a draft that survived synthesis.
const FallbackCertainty = 60

// Verifier scores and prunes draft reports.
type Verifier struct {
	provider llm.Provider
	cfg      model.VerifyConfig
}

// NewVerifier creates a new verifier
func NewVerifier(provider llm.Provider, cfg model.VerifyConfig) *Verifier {
	return &Verifier{provider: provider, cfg: cfg}
}

// verdict is the shape the verifier model responds with.
type verdict struct {
	Findings []verdictFinding `json:"findings"`
}

type verdictFinding struct {
	ID               string               `json:"id"`
	Certainty        int                  `json:"certainty"`
	Explanation      string               `json:"explanation,omitempty"`
	ContraryEvidence []model.EvidenceItem `json:"contraryEvidence,omitempty"`
}

// Verify scores the draft's findings, removes those below the removal
// threshold, and cleans up orphans. It always returns a usable report: an
// unusable verification response falls back to the draft with
// FallbackCertainty on every finding and a methodology note, and a verdict
// that scored nothing falls back the same way with an explicit
// could-not-verify note on each finding.
func (v *Verifier) Verify(ctx context.Context, draft *model.Report, evidence []model.EvidenceItem) *model.Report {
	report := draft
	report.GeneratedAt = time.Now().UTC()

	vd, err := v.score(ctx, report, evidence)
	if err != nil {
		return v.fallback(report, err)
	}
	if len(vd.Findings) == 0 {
		return v.fallbackEmptyVerdict(report)
	}

	applyVerdict(report, vd)

	threshold := removalThreshold(v.cfg, report.Findings)
	removeBelow(report, threshold)
	cleanup(report)
	return report
}

// score runs the verification call and parses the verdict through the object
// resilience ladder. The direct rung accepts any response carrying a
// findings key, including an explicitly empty list; the repair and
// extraction rungs require scored findings, so a commentary object in the
// response cannot shadow the verdict.
func (v *Verifier) score(ctx context.Context, report *model.Report, evidence []model.EvidenceItem) (*verdict, error) {
	if !v.cfg.CrossCheck {
		evidence = nil
	}

	resp, err := v.provider.Invoke(ctx, llm.Request{
		System: verifySystem,
		User:   buildVerifyPrompt(report, evidence),
	})
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}

	cleaned := jsonx.StripFences(resp.Text)

	var head struct {
		Findings *[]verdictFinding `json:"findings"`
	}
	if err := json.Unmarshal([]byte(cleaned), &head); err == nil && head.Findings != nil {
		return &verdict{Findings: *head.Findings}, nil
	}

	if resp.StopReason == llm.StopTruncated {
		if repaired := jsonx.RepairTruncated(cleaned); repaired != "" {
			var vd verdict
			if err := json.Unmarshal([]byte(repaired), &vd); err == nil && len(vd.Findings) > 0 {
				return &vd, nil
			}
		}
	}

	for _, candidate := range jsonx.ExtractObjects(cleaned) {
		var vd verdict
		if err := json.Unmarshal([]byte(candidate), &vd); err == nil && len(vd.Findings) > 0 {
			return &vd, nil
		}
	}

	return nil, &jsonx.ParseError{
		Stage:      "verify",
		StopReason: string(resp.StopReason),
		Raw:        resp.Text,
	}
}

// applyVerdict merges scores and contrary evidence into the report's
// findings. Verdict entries for unknown ids are ignored; findings the
// verdict skipped keep certainty 0 and pick up DefaultCertainty in the
// aggregate, which also leaves them eligible for removal only under an
// adaptive threshold that reaches that high.
func applyVerdict(report *model.Report, vd *verdict) {
	for _, vf := range vd.Findings {
		f := report.FindingByID(vf.ID)
		if f == nil {
			continue
		}
		f.Certainty = clampCertainty(vf.Certainty)
		if vf.Explanation != "" {
			f.Explanation.Text = vf.Explanation
		}
		if len(vf.ContraryEvidence) > 0 {
			f.Explanation.ContraryEvidence = vf.ContraryEvidence
		}
	}
	for i := range report.Findings {
		if report.Findings[i].Certainty == 0 {
			report.Findings[i].Certainty = model.DefaultCertainty
		}
	}
}

func clampCertainty(c int) int {
	if c < 1 {
		return model.DefaultCertainty
	}
	if c > 99 {
		return 99
	}
	return c
}

// fallback is the terminal rung for an unusable verification response: the
// draft itself, every finding scored FallbackCertainty. Contrary evidence is
// left as the draft had it; the methodology note is what marks the report
// unverified.
func (v *Verifier) fallback(report *model.Report, cause error) *model.Report {
	for i := range report.Findings {
		report.Findings[i].Certainty = FallbackCertainty
	}

	msg := "verification unavailable; findings carry stand-in certainty"
	if cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, cause)
	}
	annotateMethodology(report, msg)

	cleanup(report)
	return report
}

// fallbackEmptyVerdict handles a verifier that ran but scored nothing: the
// draft's findings survive at stand-in certainty, each carrying an explicit
// could-not-verify contrary note.
func (v *Verifier) fallbackEmptyVerdict(report *model.Report) *model.Report {
	note := model.EvidenceItem{
		Source: "verification",
		Quote:  "could not verify this finding; certainty is a stand-in",
		URL:    model.URLInternal,
	}
	for i := range report.Findings {
		report.Findings[i].Certainty = FallbackCertainty
		report.Findings[i].Explanation.ContraryEvidence = append(
			report.Findings[i].Explanation.ContraryEvidence, note)
	}
	annotateMethodology(report, "verifier returned no scores; findings carry stand-in certainty")

	cleanup(report)
	return report
}

func annotateMethodology(report *model.Report, msg string) {
	if report.Meta.Methodology != "" {
		report.Meta.Methodology += "; "
	}
	report.Meta.Methodology += msg
}
