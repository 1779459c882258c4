package research

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/attestor/internal/jsonx"
	"github.com/ppiankov/attestor/internal/llm"
	"github.com/ppiankov/attestor/internal/model"
	"github.com/ppiankov/attestor/internal/search"
	"github.com/ppiankov/attestor/internal/worker"
)

// Grounded collects evidence from search results. It generates a set of
// search queries with one LLM call, fans them out over a worker pool, and
// extracts evidence items from the combined results with a second call.
// Evidence whose url matches a returned result URL is marked verified.
type Grounded struct {
	provider llm.Provider
	search   search.Service
	cfg      model.ResearchConfig
}

// searchJob runs one search query inside the fan-out pool.
type searchJob struct {
	ctx   context.Context
	svc   search.Service
	query string
}

// searchResult implements worker.Result
type searchResult struct {
	result *search.Result
	err    error
}

func (r *searchResult) GetError() error { return r.err }

func (j *searchJob) Execute(ctx context.Context) worker.Result {
	res, err := j.svc.Search(j.ctx, j.query, 0)
	if err != nil {
		return &searchResult{err: fmt.Errorf("search %q: %w", j.query, err)}
	}
	return &searchResult{result: res}
}

// Research runs the grounded strategy. Individual search failures are
// tolerated; if every search fails the collector proceeds from model
// knowledge alone, same as the ungrounded strategy.
func (g *Grounded) Research(ctx context.Context, query string, profile model.DomainProfile) ([]model.EvidenceItem, error) {
	queries := g.generateQueries(ctx, query, profile)

	results := g.fanOut(ctx, queries)
	if len(results) == 0 {
		fallback := &Ungrounded{provider: g.provider, cfg: g.cfg}
		return fallback.Research(ctx, query, profile)
	}

	resp, err := g.provider.Invoke(ctx, llm.Request{
		System: researchSystem,
		User:   buildGroundedPrompt(query, profile, results, g.cfg.MinEvidence),
	})
	if err != nil {
		return nil, fmt.Errorf("grounded research: %w", err)
	}

	items, err := parseEvidence(resp)
	if err != nil {
		return nil, err
	}

	items = dropEmpty(items)
	markVerified(items, search.URLSet(results))
	return items, nil
}

// generateQueries asks the provider for search queries covering the profile's
// sections. A parse failure here is not worth aborting the run: the original
// query alone still yields usable results.
func (g *Grounded) generateQueries(ctx context.Context, query string, profile model.DomainProfile) []string {
	fanout := g.cfg.SearchFanout
	if fanout <= 0 {
		fanout = 1
	}

	resp, err := g.provider.Invoke(ctx, llm.Request{
		System: queryGenSystem,
		User:   buildQueryGenPrompt(query, profile, fanout),
	})
	if err != nil {
		return []string{query}
	}

	queries, err := parseQueries(resp)
	if err != nil || len(queries) == 0 {
		return []string{query}
	}
	if len(queries) > fanout {
		queries = queries[:fanout]
	}
	return queries
}

func parseQueries(resp *llm.Response) ([]string, error) {
	cleaned := jsonx.StripFences(resp.Text)

	var queries []string
	if err := json.Unmarshal([]byte(cleaned), &queries); err == nil {
		return queries, nil
	}

	if resp.StopReason == llm.StopTruncated {
		if repaired := jsonx.RepairTruncated(cleaned); repaired != "" {
			if err := json.Unmarshal([]byte(repaired), &queries); err == nil {
				return queries, nil
			}
		}
	}

	if candidate := jsonx.ExtractArray(cleaned); candidate != "" {
		if err := json.Unmarshal([]byte(candidate), &queries); err == nil {
			return queries, nil
		}
	}

	return nil, &jsonx.ParseError{
		Stage:      "research",
		StopReason: string(resp.StopReason),
		Raw:        resp.Text,
	}
}

// fanOut runs the search queries through a worker pool and returns the
// successful results. Failed queries are dropped, not retried.
func (g *Grounded) fanOut(ctx context.Context, queries []string) []*search.Result {
	pool := worker.NewPool(g.cfg.Workers, len(queries))
	pool.Start()

	for _, q := range queries {
		pool.Submit(&searchJob{ctx: ctx, svc: g.search, query: q})
	}

	var results []*search.Result
	for _, res := range pool.Wait() {
		sr, ok := res.(*searchResult)
		if !ok || sr.err != nil || sr.result == nil || len(sr.result.Results) == 0 {
			continue
		}
		results = append(results, sr.result)
	}
	return results
}

// markVerified tags evidence whose url matches a real search result URL.
// Sentinel URLs never count as verified.
func markVerified(items []model.EvidenceItem, urls map[string]bool) {
	for i := range items {
		items[i].Verified = !model.IsSentinelURL(items[i].URL) && urls[items[i].URL]
	}
}
