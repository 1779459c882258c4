package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/attestor/internal/cache"
	"github.com/ppiankov/attestor/internal/model"
	"github.com/ppiankov/attestor/internal/util"
	"github.com/ppiankov/attestor/internal/worker"
)

// Client queries a SearxNG-compatible JSON API. Responses are cached and
// requests are rate limited per host so fan-out stays polite.
type Client struct {
	baseURL     string
	resultCount int
	httpClient  *http.Client
	limiter     *worker.Limiter
	cache       cache.Cache
	enricher    *Enricher
}

// searx JSON API response
type searxResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// NewClient creates a search client from configuration. Returns nil (no
// error) when no endpoint is configured; the caller treats a nil client as
// the search capability being absent.
func NewClient(cfg model.SearchConfig, store cache.Cache) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, nil
	}

	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("parse search base URL: %w", err)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	client := &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		resultCount: cfg.ResultCount,
		httpClient:  util.NewHTTPClient(timeout, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		limiter:     worker.NewLimiter(cfg.RatePerSecond, cfg.Burst),
		cache:       store,
	}

	if cfg.EnrichSnippets {
		client.enricher = NewEnricher(cfg, client.limiter)
	}

	return client, nil
}

// Search runs one query against the search API.
func (c *Client) Search(ctx context.Context, query string, count int) (*Result, error) {
	if count <= 0 {
		count = c.resultCount
	}
	if count <= 0 {
		count = 8
	}

	key := cache.Key(query, fmt.Sprintf("%d", count))
	if c.cache != nil {
		if data, found := c.cache.Get(key); found {
			var cached Result
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	if err := c.limiter.Wait(ctx, c.baseURL); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s/search?q=%s&format=json", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search API error (%d) for %q", resp.StatusCode, query)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	var parsed searxResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal search response: %w", err)
	}

	result := &Result{Query: query}
	for i, r := range parsed.Results {
		if i >= count {
			break
		}
		result.Results = append(result.Results, Hit{
			Title:   r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		})
	}

	if c.enricher != nil {
		c.enricher.Enrich(ctx, result.Results)
	}

	if c.cache != nil {
		if data, err := json.Marshal(result); err == nil {
			_ = c.cache.Set(key, data, 0)
		}
	}

	return result, nil
}
