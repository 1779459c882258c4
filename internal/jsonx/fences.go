// Package jsonx recovers valid JSON from LLM output that may be fenced,
// truncated at an output-length ceiling, or embedded in commentary that
// contains unrelated brace-like tokens.
package jsonx

import "strings"

// StripFences removes markdown code-fence marker lines (``` and ```json)
// while keeping the fenced content. Pure and total: text without fences is
// returned unchanged.
func StripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
