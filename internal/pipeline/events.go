package pipeline

import (
	"time"

	"github.com/ppiankov/attestor/internal/model"
	"github.com/ppiankov/attestor/internal/score"
)

// Event types.
const (
	EventStageStart    = "stageStart"
	EventStageComplete = "stageComplete"
	EventReportReady   = "reportReady"
)

// Stage names as they appear in events.
const (
	StageClassify = "classify"
	StageResearch = "research"
	StageSynth    = "synthesize"
	StageVerify   = "verify"
)

// Progress percentages per completed stage. Monotonic by construction: a
// stage start reuses the previous stage's completion percent.
const (
	PercentStart       = 0
	PercentClassified  = 15
	PercentResearched  = 55
	PercentSynthesized = 80
	PercentVerified    = 95
	PercentDone        = 100
)

// Event is one progress notification from a run.
type Event struct {
	Type    string `json:"type"`
	Stage   string `json:"stage,omitempty"`
	Percent int    `json:"percent"`
	Message string `json:"message,omitempty"`

	// Set on reportReady only.
	Report   *model.Report `json:"-"`
	Stats    *score.Stats  `json:"stats,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

func stageStart(stage string, percent int) Event {
	return Event{Type: EventStageStart, Stage: stage, Percent: percent}
}

func stageComplete(stage string, percent int, message string) Event {
	return Event{Type: EventStageComplete, Stage: stage, Percent: percent, Message: message}
}

func reportReady(report *model.Report, stats score.Stats, duration time.Duration) Event {
	return Event{
		Type:     EventReportReady,
		Percent:  PercentDone,
		Report:   report,
		Stats:    &stats,
		Duration: duration,
	}
}
