package llm

import (
	"errors"
	"fmt"
)

// ErrEmptyResponse indicates the provider returned no content. Not
// recoverable by the parse ladders; propagates to the caller.
var ErrEmptyResponse = errors.New("llm: empty response")

// Upstream failure kinds, derived from the provider's status code. The
// pipeline never maps these to user-facing copy; the caller does.
const (
	KindAuth      = "auth"
	KindRateLimit = "rate_limit"
	KindServer    = "server"
	KindUpstream  = "upstream"
)

// UpstreamError reports a failure from the text-generation collaborator
// itself (auth, rate limit, 5xx). Not recoverable here; it must propagate
// through the orchestrator without internal retry.
type UpstreamError struct {
	Provider   string // which provider failed
	StatusCode int    // HTTP status, 0 if unknown
	Message    string // provider-supplied message
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream error (status %d, %s): %s",
		e.Provider, e.StatusCode, e.Kind(), e.Message)
}

// Kind classifies the failure for caller-side mapping.
func (e *UpstreamError) Kind() string {
	switch {
	case e.StatusCode == 401 || e.StatusCode == 403:
		return KindAuth
	case e.StatusCode == 429:
		return KindRateLimit
	case e.StatusCode >= 500:
		return KindServer
	default:
		return KindUpstream
	}
}
