package llm

import (
	"context"

	"github.com/ppiankov/attestor/internal/model"
)

// Provider defines the interface for text-generation providers.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Invoke sends one system/user prompt pair and returns the raw response
	// text with its normalized stop reason and token usage.
	Invoke(ctx context.Context, req Request) (*Response, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Request contains the input for a single generation call.
type Request struct {
	// System is the system prompt establishing the stage's role and contract
	System string

	// User is the user message; stage payloads (queries, evidence, drafts)
	// are embedded here as opaque data
	User string

	// Model overrides the configured model for this call (optional)
	Model string

	// MaxTokens overrides the configured output ceiling (optional)
	MaxTokens int
}

// Response contains a provider's raw output.
type Response struct {
	// Text is the raw generated text, before any JSON recovery
	Text string

	// StopReason is the normalized reason generation ended
	StopReason StopReason

	// Usage tracks token consumption
	Usage Usage
}

// StopReason is the normalized reason a generation call ended. Truncation is
// the signal that triggers repair-before-extraction in the parse ladders.
type StopReason string

const (
	StopEnd       StopReason = "end"       // Natural completion
	StopTruncated StopReason = "truncated" // Output-length ceiling reached
	StopOther     StopReason = "other"     // Anything else (filters, tool stops)
)

// Usage tracks token consumption for a single call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "openai",
		Timeout:   120,
		MaxTokens: 8192,
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:   modelConfig.Provider,
		Model:      modelConfig.Model,
		APIKey:     modelConfig.APIKey,
		BaseURL:    modelConfig.BaseURL,
		Timeout:    modelConfig.Timeout,
		MaxTokens:  modelConfig.MaxTokens,
		HTTPProxy:  modelConfig.HTTPProxy,
		HTTPSProxy: modelConfig.HTTPSProxy,
		NoProxy:    modelConfig.NoProxy,
	}
}
