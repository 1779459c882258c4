package verify

import (
	"fmt"
	"strings"

	"github.com/ppiankov/attestor/internal/model"
)

const verifySystem = `You are an adversarial fact verifier. For each finding in a draft report you assign a certainty score and, where the evidence warrants it, contrary evidence.

Certainty tiers:
  95-99  directly supported factual claims from authoritative sources
  80-94  well-supported claims with minor inference
  65-79  reasonable inference from the evidence
  50-64  plausible but thinly supported
  25-49  weak, speculative, or contradicted in part
   1-24  unsupported or contradicted

Respond with ONLY a JSON object, no commentary:
{
  "findings": [
    {"id": "f1", "certainty": 96, "explanation": "why this score",
     "contraryEvidence": [{"source": "...", "quote": "...", "url": "..."}]}
  ]
}

Score every finding by id. Be skeptical: quotes without a verifiable source, round numbers without attribution, and claims exceeding their evidence all lower certainty.`

func buildVerifyPrompt(report *model.Report, evidence []model.EvidenceItem) string {
	var b strings.Builder
	b.WriteString("Verify each finding of the draft report below.\n\nFindings:\n")
	for _, f := range report.Findings {
		fmt.Fprintf(&b, "\n%s (section %s): %s\n", f.ID, f.Section, f.Text)
		for _, ev := range f.Explanation.SupportingEvidence {
			verified := ""
			if ev.Verified {
				verified = " [verified]"
			}
			fmt.Fprintf(&b, "  evidence: (%s | %s)%s %q\n", ev.Source, ev.URL, verified, ev.Quote)
		}
	}

	if len(evidence) > 0 {
		b.WriteString("\nOriginal evidence inventory for cross-checking. Findings citing evidence that is not in this inventory, or misquoting it, deserve low certainty:\n")
		for i, item := range evidence {
			fmt.Fprintf(&b, "%d. (%s | %s) %q\n", i+1, item.Source, item.URL, item.Quote)
		}
	}

	return b.String()
}
