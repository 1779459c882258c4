// Package search talks to an optional SearxNG-compatible search collaborator.
// Its absence is capability detection, not a configuration error: a nil
// Service makes the researcher fall back to its ungrounded strategy.
package search

import "context"

// Service defines the interface for the search collaborator.
type Service interface {
	// Search runs one query and returns up to count results.
	Search(ctx context.Context, query string, count int) (*Result, error)
}

// Result is the response to a single search query.
type Result struct {
	Query   string `json:"query"`
	Results []Hit  `json:"results"`
}

// Hit is one search result.
type Hit struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Snippet   string `json:"snippet"`
	ExtraText string `json:"extraText,omitempty"` // Page text added by snippet enrichment
}

// URLSet collects the result URLs from a batch of results. The researcher
// uses it to tag evidence whose url matches a real returned URL as verified.
func URLSet(results []*Result) map[string]bool {
	urls := make(map[string]bool)
	for _, r := range results {
		if r == nil {
			continue
		}
		for _, hit := range r.Results {
			if hit.URL != "" {
				urls[hit.URL] = true
			}
		}
	}
	return urls
}
