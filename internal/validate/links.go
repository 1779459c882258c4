package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/ppiankov/attestor/internal/model"
	"github.com/ppiankov/attestor/internal/util"
)

const linkMaxRetries = 3

// linkSleepFunc is the sleep function used between retries (injectable for tests)
var linkSleepFunc = time.Sleep

// LinkResult is the outcome of checking one evidence URL.
type LinkResult struct {
	URL          string
	IsAccessible bool
	IsDead       bool
	StatusCode   int
	RedirectURL  string
	Error        string
}

// LinkChecker checks evidence URLs concurrently. Sentinel URLs are skipped;
// they are provenance markers, not locators.
type LinkChecker struct {
	httpClient *http.Client
	maxWorkers int
	userAgent  string
}

// NewLinkChecker creates a new link checker
func NewLinkChecker(timeout time.Duration, maxWorkers int, userAgent, httpProxy, httpsProxy, noProxy string) *LinkChecker {
	if maxWorkers <= 0 {
		maxWorkers = 20
	}

	return &LinkChecker{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(httpProxy, httpsProxy, noProxy),
			},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		userAgent:  userAgent,
	}
}

// CheckLinks checks the distinct real URLs in the evidence set.
func (c *LinkChecker) CheckLinks(ctx context.Context, evidence []model.EvidenceItem) []LinkResult {
	urls := make([]string, 0, len(evidence))
	seen := make(map[string]bool, len(evidence))
	for _, item := range evidence {
		if item.URL == "" || model.IsSentinelURL(item.URL) || seen[item.URL] {
			continue
		}
		seen[item.URL] = true
		urls = append(urls, item.URL)
	}
	if len(urls) == 0 {
		return []LinkResult{}
	}

	results := make([]LinkResult, len(urls))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, c.maxWorkers)

	for i, u := range urls {
		wg.Add(1)
		go func(idx int, url string) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = LinkResult{URL: url, Error: "context cancelled"}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = c.checkWithRetry(ctx, url)
		}(i, u)
	}

	wg.Wait()
	return results
}

func (c *LinkChecker) check(ctx context.Context, url string) LinkResult {
	result := LinkResult{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		result.Error = fmt.Sprintf("create request: %v", err)
		result.IsDead = true
		return result
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		result.Error = fmt.Sprintf("request failed: %v", err)
		result.IsDead = true
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.IsAccessible = true
	} else if resp.StatusCode == 404 || resp.StatusCode == 410 {
		result.IsDead = true
	}

	if resp.Request.URL.String() != url {
		result.RedirectURL = resp.Request.URL.String()
	}

	return result
}

// checkWithRetry retries transient failures with exponential backoff
func (c *LinkChecker) checkWithRetry(ctx context.Context, url string) LinkResult {
	var result LinkResult
	for attempt := 0; attempt < linkMaxRetries; attempt++ {
		result = c.check(ctx, url)
		if !isRetryable(result) {
			return result
		}
		if attempt < linkMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			linkSleepFunc(backoff)
		}
	}
	return result
}

// isRetryable returns true for results that indicate transient failures
func isRetryable(result LinkResult) bool {
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == 429 {
		return true
	}
	if result.Error != "" && isRetryableNetworkError(result.Error) {
		return true
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
