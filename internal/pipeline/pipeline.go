// Package pipeline orchestrates the four report stages: classify, research,
// synthesize, verify. The orchestrator sequences stages, polls for abort
// between and after them, and emits progress events; it never retries a
// stage and never swallows a stage error, the stages own their own fallbacks.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/attestor/internal/cache"
	"github.com/ppiankov/attestor/internal/classify"
	"github.com/ppiankov/attestor/internal/llm"
	"github.com/ppiankov/attestor/internal/model"
	"github.com/ppiankov/attestor/internal/research"
	"github.com/ppiankov/attestor/internal/score"
	"github.com/ppiankov/attestor/internal/search"
	"github.com/ppiankov/attestor/internal/synth"
	"github.com/ppiankov/attestor/internal/validate"
	"github.com/ppiankov/attestor/internal/verify"
)

// ErrAborted is returned when the abort check fires between stages.
var ErrAborted = errors.New("run aborted")

// Pipeline wires the stages together for a single configuration.
type Pipeline struct {
	classifier  *classify.Classifier
	researcher  research.Researcher
	synthesizer *synth.Synthesizer
	verifier    *verify.Verifier
	scorer      *score.Scorer
	renderer    *Renderer
	config      *model.Config

	abortCheck func() bool
	events     func(Event)
}

// NewPipeline creates a pipeline from the configuration. The search
// collaborator is optional; without it the researcher runs ungrounded.
func NewPipeline(cfg *model.Config) (*Pipeline, error) {
	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("init provider: %w", err)
	}

	var svc search.Service
	client, err := search.NewClient(cfg.Search, searchCache(cfg.Cache))
	if err != nil {
		return nil, fmt.Errorf("init search: %w", err)
	}
	if client != nil {
		svc = client
	}

	return &Pipeline{
		classifier:  classify.NewClassifier(provider),
		researcher:  research.New(provider, svc, cfg.Research),
		synthesizer: synth.NewSynthesizer(provider, cfg.Synth),
		verifier:    verify.NewVerifier(provider, cfg.Verify),
		scorer:      score.NewScorer(cfg.Synth.MinSupport),
		renderer:    NewRenderer(cfg.Output.IncludeFooter),
		config:      cfg,
	}, nil
}

// searchCache builds the layered cache for search responses, or nil when
// caching is disabled.
func searchCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return cache.NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return cache.NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// SetAbortCheck installs a predicate polled between stages. A true return
// stops the run with ErrAborted; a stage already in flight is not torn down.
func (p *Pipeline) SetAbortCheck(check func() bool) {
	p.abortCheck = check
}

// SetEventSink installs a progress event callback.
func (p *Pipeline) SetEventSink(sink func(Event)) {
	p.events = sink
}

func (p *Pipeline) aborted() bool {
	return p.abortCheck != nil && p.abortCheck()
}

func (p *Pipeline) emit(ev Event) {
	if p.events != nil {
		p.events(ev)
	}
}

// Run executes the full pipeline for one query.
func (p *Pipeline) Run(ctx context.Context, query string) (*model.Report, error) {
	start := time.Now()

	if p.aborted() {
		return nil, ErrAborted
	}

	// 1. Classify
	p.emit(stageStart(StageClassify, PercentStart))
	profile, err := p.classifier.Classify(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := validate.Profile(profile); err != nil {
		return nil, err
	}
	p.emit(stageComplete(StageClassify, PercentClassified, fmt.Sprintf("domain: %s", profile.Domain)))

	if p.aborted() {
		return nil, ErrAborted
	}

	// 2. Research
	p.emit(stageStart(StageResearch, PercentClassified))
	evidence, err := p.researcher.Research(ctx, query, profile)
	if err != nil {
		return nil, err
	}
	if err := validate.Evidence(evidence); err != nil {
		return nil, err
	}
	p.emit(stageComplete(StageResearch, PercentResearched, fmt.Sprintf("%d evidence items", len(evidence))))

	if p.aborted() {
		return nil, ErrAborted
	}

	// 3. Synthesize
	p.emit(stageStart(StageSynth, PercentResearched))
	draft, err := p.synthesizer.Synthesize(ctx, query, profile, evidence)
	if err != nil {
		return nil, err
	}
	if err := validate.Draft(draft); err != nil {
		return nil, err
	}
	p.emit(stageComplete(StageSynth, PercentSynthesized, fmt.Sprintf("%d draft findings", len(draft.Findings))))

	if p.aborted() {
		return nil, ErrAborted
	}

	// 4. Verify. Never fails; the worst case is the draft with stand-in
	// certainty.
	p.emit(stageStart(StageVerify, PercentSynthesized))
	report := p.verifier.Verify(ctx, draft, evidence)
	report.Query = query
	report.Profile = profile
	if err := validate.Final(report); err != nil {
		return nil, err
	}
	p.emit(stageComplete(StageVerify, PercentVerified, fmt.Sprintf("%d findings kept", len(report.Findings))))

	if p.aborted() {
		return nil, ErrAborted
	}

	stats := p.scorer.Calculate(report)
	p.emit(reportReady(report, stats, time.Since(start)))

	return report, nil
}

// Stats computes reader-facing statistics for a finished report.
func (p *Pipeline) Stats(report *model.Report) score.Stats {
	return p.scorer.Calculate(report)
}

// RenderReport renders the report to the requested outputs and prints the
// summary to stdout.
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Printf("✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	p.renderer.RenderSummary(report, p.scorer.Calculate(report))
	return nil
}
