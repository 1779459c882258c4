package search

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/attestor/internal/model"
	"github.com/ppiankov/attestor/internal/util"
	"github.com/ppiankov/attestor/internal/worker"
	"golang.org/x/net/html"
)

// maxExtraText caps how much page text a single hit can carry into the
// evidence-extraction prompt.
const maxExtraText = 2000

// Enricher fetches result pages to add body text beyond the search snippet.
// Fetching respects robots.txt; a page that cannot or may not be fetched
// simply keeps its snippet.
type Enricher struct {
	httpClient   *http.Client
	robots       *util.RobotsChecker
	limiter      *worker.Limiter
	userAgent    string
	maxBodyBytes int64
}

// NewEnricher creates a snippet enricher sharing the client's rate limiter.
func NewEnricher(cfg model.SearchConfig, limiter *worker.Limiter) *Enricher {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody == 0 {
		maxBody = 2_000_000
	}

	return &Enricher{
		httpClient:   util.NewHTTPClient(timeout, cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy),
		robots:       util.NewRobotsChecker(cfg.UserAgent, timeout),
		limiter:      limiter,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: maxBody,
	}
}

// Enrich fills ExtraText on hits whose pages can be fetched. Failures leave
// the hit untouched; enrichment is best-effort.
func (e *Enricher) Enrich(ctx context.Context, hits []Hit) {
	for i := range hits {
		if hits[i].URL == "" {
			continue
		}
		text, err := e.fetchText(ctx, hits[i].URL)
		if err != nil || text == "" {
			continue
		}
		hits[i].ExtraText = text
	}
}

func (e *Enricher) fetchText(ctx context.Context, rawURL string) (string, error) {
	if !e.robots.IsAllowed(ctx, rawURL) {
		return "", nil
	}
	if err := e.limiter.Wait(ctx, rawURL); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", nil
	}
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.Contains(contentType, "html") {
		return "", nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBodyBytes))
	if err != nil {
		return "", err
	}

	return extractText(string(body)), nil
}

// extractText walks the HTML tree collecting visible text, skipping script
// and style subtrees.
func extractText(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if b.Len() >= maxExtraText {
				return
			}
			walk(c)
		}
	}
	walk(doc)

	text := b.String()
	if len(text) > maxExtraText {
		text = text[:maxExtraText]
	}
	return text
}
