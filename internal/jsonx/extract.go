package jsonx

import "encoding/json"

// ExtractObject finds the JSON object embedded in text. For every "{" it
// walks forward with string/escape-aware depth tracking until depth returns
// to zero, test-parses the candidate, and retains the longest candidate that
// parses. Returns "" when no candidate parses.
//
// Longest-wins matters: naive first-to-last brace matching can pick a small,
// unrelated JSON fragment that appears in commentary before the real payload.
func ExtractObject(text string) string {
	return extractBalanced(text, '{')
}

// ExtractArray is ExtractObject for a top-level JSON array.
func ExtractArray(text string) string {
	return extractBalanced(text, '[')
}

// ExtractObjects returns every parseable object candidate in order of
// appearance, nested objects included. Callers that know the shape they need
// can pick the candidate that carries it instead of taking the longest.
func ExtractObjects(text string) []string {
	var out []string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		end := scanBalanced(text, i)
		if end < 0 {
			continue
		}
		candidate := text[i:end]
		if json.Valid([]byte(candidate)) {
			out = append(out, candidate)
		}
	}
	return out
}

func extractBalanced(text string, opener byte) string {
	best := ""
	for i := 0; i < len(text); i++ {
		if text[i] != opener {
			continue
		}
		end := scanBalanced(text, i)
		if end < 0 {
			continue
		}
		candidate := text[i:end]
		if len(candidate) > len(best) && json.Valid([]byte(candidate)) {
			best = candidate
		}
	}
	return best
}

// scanBalanced walks forward from the opener at start, tracking nesting depth
// with string/escape-aware scanning. Characters inside quoted strings,
// including escaped quotes, never affect depth. Returns the index just past
// the position where depth returns to zero, or -1 if it never does.
func scanBalanced(s string, start int) int {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
