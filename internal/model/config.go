package model

import "time"

// Config holds the complete Attestor configuration.
type Config struct {
	LLM      LLMConfig      `yaml:"llm" mapstructure:"llm"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Research ResearchConfig `yaml:"research" mapstructure:"research"`
	Synth    SynthConfig    `yaml:"synthesis" mapstructure:"synthesis"`
	Verify   VerifyConfig   `yaml:"verify" mapstructure:"verify"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// LLMConfig configures the text-generation provider.
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"`     // "openai", "anthropic", "ollama"
	Model     string `yaml:"model" mapstructure:"model"`           // Provider-specific model name
	APIKey    string `yaml:"api_key" mapstructure:"api_key"`       // Prefer env vars over the config file
	BaseURL   string `yaml:"base_url" mapstructure:"base_url"`     // Custom endpoint (e.g., Ollama)
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"`       // Seconds per call
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"` // Output ceiling per call

	// Proxy settings for providers reached over plain HTTP.
	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// SearchConfig configures the optional search collaborator. An empty BaseURL
// disables search entirely, which selects the ungrounded research strategy.
type SearchConfig struct {
	BaseURL        string  `yaml:"base_url" mapstructure:"base_url"`               // SearxNG-compatible endpoint
	ResultCount    int     `yaml:"result_count" mapstructure:"result_count"`       // Results requested per query
	Timeout        int     `yaml:"timeout" mapstructure:"timeout"`                 // Seconds per search call
	RatePerSecond  float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"` // Per-host request rate
	Burst          int     `yaml:"burst" mapstructure:"burst"`
	EnrichSnippets bool    `yaml:"enrich_snippets" mapstructure:"enrich_snippets"` // Fetch result pages for extra text
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes   int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`

	HTTPProxy  string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// ResearchConfig configures the evidence collector.
type ResearchConfig struct {
	MinEvidence  int `yaml:"min_evidence" mapstructure:"min_evidence"`   // Minimum evidence items to produce
	SearchFanout int `yaml:"search_fanout" mapstructure:"search_fanout"` // Search queries generated per run
	Workers      int `yaml:"workers" mapstructure:"workers"`             // Concurrent search workers
}

// SynthConfig configures the draft synthesizer.
type SynthConfig struct {
	MinSupport  int `yaml:"min_support" mapstructure:"min_support"`   // Supporting evidence per finding
	MinFindings int `yaml:"min_findings" mapstructure:"min_findings"` // Target lower bound on findings
	MaxFindings int `yaml:"max_findings" mapstructure:"max_findings"` // Target upper bound on findings
}

// VerifyConfig configures the adversarial verifier.
type VerifyConfig struct {
	RemovalPolicy    string `yaml:"removal_policy" mapstructure:"removal_policy"`       // "fixed" or "adaptive"
	RemovalThreshold int    `yaml:"removal_threshold" mapstructure:"removal_threshold"` // Fixed-policy cutoff
	CrossCheck       bool   `yaml:"cross_check" mapstructure:"cross_check"`             // Pass original evidence to the verifier
}

// CacheConfig configures the search response cache.
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`             // Disk cache directory
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// OutputConfig configures report rendering.
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns sensible defaults. Search is disabled by default;
// research then runs ungrounded from model knowledge.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "openai",
			Timeout:   120,
			MaxTokens: 8192,
		},
		Search: SearchConfig{
			ResultCount:   8,
			Timeout:       20,
			RatePerSecond: 2,
			Burst:         4,
			UserAgent:     "Attestor/0.1 (+https://github.com/ppiankov/attestor)",
			MaxBodyBytes:  2_000_000,
		},
		Research: ResearchConfig{
			MinEvidence:  40,
			SearchFanout: 8,
			Workers:      4,
		},
		Synth: SynthConfig{
			MinSupport:  3,
			MinFindings: 25,
			MaxFindings: 35,
		},
		Verify: VerifyConfig{
			RemovalPolicy:    "fixed",
			RemovalThreshold: 25,
			CrossCheck:       true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Output: OutputConfig{
			IncludeFooter: true,
		},
	}
}
