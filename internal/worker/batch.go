package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/attestor/internal/model"
)

// Runner defines the interface for generating one report from a query
type Runner interface {
	Run(ctx context.Context, query string) (*model.Report, error)
}

// QueryJob represents one report-generation job
type QueryJob struct {
	Query  string
	Runner Runner
}

// Execute executes the job
func (j *QueryJob) Execute(ctx context.Context) Result {
	report, err := j.Runner.Run(ctx, j.Query)
	return &QueryResult{
		Query:  j.Query,
		Report: report,
		Error:  err,
	}
}

// QueryResult represents the result of a report-generation job
type QueryResult struct {
	Query  string
	Report *model.Report
	Error  error
}

// GetError returns the error from the result
func (r *QueryResult) GetError() error {
	return r.Error
}

// BatchProcessor generates reports for multiple queries concurrently
type BatchProcessor struct {
	runner      Runner
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(runner Runner, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		runner:      runner,
		concurrency: concurrency,
	}
}

// ProcessQueries generates reports for multiple queries concurrently
func (b *BatchProcessor) ProcessQueries(ctx context.Context, queries []string) []*QueryResult {
	if len(queries) == 0 {
		return []*QueryResult{}
	}

	pool := NewPool(b.concurrency, len(queries))
	pool.Start()

	for _, query := range queries {
		pool.Submit(&QueryJob{
			Query:  query,
			Runner: b.runner,
		})
	}

	results := pool.Wait()

	queryResults := make([]*QueryResult, len(results))
	for i, result := range results {
		queryResults[i] = result.(*QueryResult)
	}

	return queryResults
}

// ProcessFile reads queries from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*QueryResult, error) {
	queries, err := ReadQueriesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read queries: %w", err)
	}

	return b.ProcessQueries(ctx, queries), nil
}

// ReadQueriesFromFile reads queries from a file (one per line)
func ReadQueriesFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var queries []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Deduplicate queries
		if !seen[line] {
			seen[line] = true
			queries = append(queries, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return queries, nil
}
