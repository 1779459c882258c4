package verify

import (
	"sort"

	"github.com/ppiankov/attestor/internal/model"
)

// Adaptive threshold bounds. The 25th percentile of a uniformly weak report
// could otherwise gut it, and a uniformly strong report would never shed
// anything; the clamp keeps the cutoff in a sane band.
const (
	adaptiveFloor = 15
	adaptiveCeil  = 45
)

// removalThreshold returns the certainty cutoff below which findings are
// removed. "fixed" uses the configured threshold; "adaptive" uses the 25th
// percentile of the report's own scores, clamped to [adaptiveFloor,
// adaptiveCeil]. Unknown policies fall back to fixed.
func removalThreshold(cfg model.VerifyConfig, findings []model.Finding) int {
	if cfg.RemovalPolicy != "adaptive" || len(findings) == 0 {
		return cfg.RemovalThreshold
	}

	scores := make([]int, 0, len(findings))
	for _, f := range findings {
		c := f.Certainty
		if c == 0 {
			c = model.DefaultCertainty
		}
		scores = append(scores, c)
	}
	sort.Ints(scores)

	p25 := scores[(len(scores)-1)/4]
	if p25 < adaptiveFloor {
		return adaptiveFloor
	}
	if p25 > adaptiveCeil {
		return adaptiveCeil
	}
	return p25
}

// removeBelow drops findings with certainty strictly below the threshold. A
// report never ends with zero findings: when every finding falls below the
// cutoff, the single highest-certainty one is retained.
func removeBelow(report *model.Report, threshold int) {
	best := -1
	for i, f := range report.Findings {
		if best < 0 || f.Certainty > report.Findings[best].Certainty {
			best = i
		}
	}

	kept := make([]model.Finding, 0, len(report.Findings))
	for _, f := range report.Findings {
		if f.Certainty >= threshold {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 && best >= 0 {
		kept = append(kept, report.Findings[best])
	}
	report.Findings = kept
}
