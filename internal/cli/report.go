package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/attestor/internal/model"
	"github.com/ppiankov/attestor/internal/pipeline"
	"github.com/ppiankov/attestor/internal/validate"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	llmProvider string
	llmModel    string
	searchURL   string
	noCache     bool
	noFooter    bool
	checkLinks  bool
	httpProxy   string
	httpsProxy  string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <query>",
	Short: "Generate an evidence-linked report for a research query",
	Long: `Report runs the full pipeline for one query:
- Classify the query into a research domain
- Collect evidence (grounded in search results when a search endpoint is configured)
- Synthesize a draft report of evidence-linked findings
- Adversarially verify every finding and remove those that fail

Example:
  attestor report "Analyze NVIDIA (NVDA)"
  attestor report "Impact of EU AI Act on startups" --json report.json --md report.md
  attestor report "Analyze AMD" --search http://localhost:8888 --check-links`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	// Output flags
	reportCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	reportCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	reportCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Run flags
	reportCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "overall run timeout")
	reportCmd.Flags().StringVar(&llmProvider, "provider", "", "LLM provider (openai, anthropic, ollama)")
	reportCmd.Flags().StringVar(&llmModel, "model", "", "LLM model name")
	reportCmd.Flags().StringVar(&searchURL, "search", "", "SearxNG-compatible search endpoint (enables grounded research)")
	reportCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the search response cache")
	reportCmd.Flags().BoolVar(&checkLinks, "check-links", false, "check that cited evidence URLs are reachable")
	reportCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	reportCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runReport(cmd *cobra.Command, args []string) error {
	query := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Query:    %s\n", query)
		fmt.Fprintf(os.Stderr, "Provider: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		if cfg.Search.BaseURL != "" {
			fmt.Fprintf(os.Stderr, "Search:   %s\n", cfg.Search.BaseURL)
		} else {
			fmt.Fprintf(os.Stderr, "Search:   disabled (ungrounded research)\n")
		}
		fmt.Fprintln(os.Stderr)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	if verbose {
		p.SetEventSink(func(ev pipeline.Event) {
			switch ev.Type {
			case pipeline.EventStageStart:
				fmt.Fprintf(os.Stderr, "⚙️  [%3d%%] %s...\n", ev.Percent, ev.Stage)
			case pipeline.EventStageComplete:
				fmt.Fprintf(os.Stderr, "✓  [%3d%%] %s: %s\n", ev.Percent, ev.Stage, ev.Message)
			case pipeline.EventReportReady:
				fmt.Fprintf(os.Stderr, "✓  [100%%] done in %v\n\n", ev.Duration.Round(time.Millisecond))
			}
		})
	}

	report, err := p.Run(ctx, query)
	if err != nil {
		return fmt.Errorf("report failed: %w", err)
	}

	if checkLinks {
		runLinkCheck(ctx, cfg, report)
	}

	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// runLinkCheck reports dead evidence links on stderr. Advisory only; dead
// links never fail the run.
func runLinkCheck(ctx context.Context, cfg *model.Config, report *model.Report) {
	checker := validate.NewLinkChecker(10*time.Second, 20, cfg.Search.UserAgent,
		cfg.Search.HTTPProxy, cfg.Search.HTTPSProxy, cfg.Search.NoProxy)

	var evidence []model.EvidenceItem
	for _, f := range report.Findings {
		evidence = append(evidence, f.Explanation.SupportingEvidence...)
		evidence = append(evidence, f.Explanation.ContraryEvidence...)
	}

	for _, result := range checker.CheckLinks(ctx, evidence) {
		if result.IsAccessible {
			continue
		}
		fmt.Fprintf(os.Stderr, "! dead link: %s (%d %s)\n", result.URL, result.StatusCode, result.Error)
	}
}

// buildConfig layers defaults, the viper config file, environment API keys,
// and command flags, highest priority last.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if llmProvider != "" {
		cfg.LLM.Provider = llmProvider
	}
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	if searchURL != "" {
		cfg.Search.BaseURL = searchURL
	}
	if cfg.Search.BaseURL == "" {
		cfg.Search.BaseURL = os.Getenv("SEARXNG_URL")
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if httpProxy != "" {
		cfg.LLM.HTTPProxy = httpProxy
		cfg.Search.HTTPProxy = httpProxy
	}
	if httpsProxy != "" {
		cfg.LLM.HTTPSProxy = httpsProxy
		cfg.Search.HTTPSProxy = httpsProxy
	}
	cfg.Output.Verbose = verbose
	cfg.Output.IncludeFooter = !noFooter

	if err := resolveAPIKey(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// resolveAPIKey fills the provider credential from the environment when the
// config file did not set one.
func resolveAPIKey(cfg *model.Config) error {
	if cfg.LLM.APIKey != "" {
		return nil
	}

	switch cfg.LLM.Provider {
	case "openai":
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" && cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = baseURL
		}
	}
	return nil
}
