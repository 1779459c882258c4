package jsonx

import (
	"encoding/json"
	"strings"
)

// RepairTruncated attempts to repair JSON cut off at an output-length
// ceiling by appending the missing closing brackets. Truncation-point
// candidates are tried from least to most aggressive:
//
//  1. the raw text;
//  2. the text with a trailing incomplete string stripped;
//  3. the text with a trailing incomplete key/value pair stripped;
//  4. the text trimmed back to the last "}" or "]".
//
// For each candidate a string/escape-aware scan builds the stack of required
// closers, the reversed stack is appended, and the result is test-parsed.
// The first candidate that parses wins. Running RepairTruncated on already
// valid JSON returns it unchanged.
//
// Returns "" when no candidate repairs. In particular, text truncated
// strictly inside a string value is never repaired: appending closers cannot
// know where the value was meant to end, and inventing a cut point would be
// a false-positive repair.
func RepairTruncated(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	state := scanState(text)
	if state.inString && !state.inKey {
		return ""
	}

	candidates := []string{text}
	base := text
	if state.inString {
		// Truncated inside a key string: drop the incomplete key.
		base = strings.TrimRight(text[:state.stringStart], " \t\r\n")
		candidates = append(candidates, base)
	}
	if stripped := stripDanglingPair(base); stripped != base {
		candidates = append(candidates, stripped)
	}
	if trimmed := trimToLastCloser(base); trimmed != "" && trimmed != base {
		candidates = append(candidates, trimmed)
	}

	for _, candidate := range candidates {
		if repaired, ok := closeBrackets(candidate); ok {
			return repaired
		}
	}
	return ""
}

// scanResult captures where a string/escape-aware scan of the whole text
// ended up.
type scanResult struct {
	inString    bool
	inKey       bool // the open string is an object key, not a value
	stringStart int  // index of the opening quote of the open string
	stack       []byte
}

func scanState(s string) scanResult {
	var res scanResult
	escaped := false
	lastSignificant := byte(0)

	for i := 0; i < len(s); i++ {
		c := s[i]
		if res.inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				res.inString = false
				lastSignificant = '"'
			}
			continue
		}
		switch c {
		case '"':
			res.inString = true
			res.stringStart = i
			// A string opened directly inside an object (not after a
			// colon) is a key; everything else is a value.
			top := byte(0)
			if len(res.stack) > 0 {
				top = res.stack[len(res.stack)-1]
			}
			res.inKey = top == '{' && lastSignificant != ':'
		case '{', '[':
			res.stack = append(res.stack, c)
			lastSignificant = c
		case '}', ']':
			if len(res.stack) > 0 {
				res.stack = res.stack[:len(res.stack)-1]
			}
			lastSignificant = c
		case ' ', '\t', '\n', '\r':
			// whitespace is never significant
		default:
			lastSignificant = c
		}
	}
	return res
}

// stripDanglingPair removes a trailing incomplete member: a partial scalar
// token (true/false/null/number fragment), a dangling ":", a complete quoted
// key left without a value, and the "," that introduced the member.
func stripDanglingPair(s string) string {
	s = strings.TrimRight(s, " \t\r\n")

	// Partial scalar token.
	end := len(s)
	for end > 0 && isScalarByte(s[end-1]) {
		end--
	}
	s = strings.TrimRight(s[:end], " \t\r\n")

	// Dangling colon and its key.
	if strings.HasSuffix(s, ":") {
		s = strings.TrimRight(s[:len(s)-1], " \t\r\n")
	}
	if strings.HasSuffix(s, "\"") {
		if start := openingQuote(s); start >= 0 {
			s = strings.TrimRight(s[:start], " \t\r\n")
		}
	}

	// Dangling comma.
	if strings.HasSuffix(s, ",") {
		s = strings.TrimRight(s[:len(s)-1], " \t\r\n")
	}
	return s
}

func isScalarByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c == '+', c == '-', c == '.':
		return true
	}
	return false
}

// openingQuote finds the opening quote of the complete string that ends at
// the final byte of s, honoring escapes. Returns -1 if there is none.
func openingQuote(s string) int {
	for i := len(s) - 2; i >= 0; i-- {
		if s[i] != '"' {
			continue
		}
		// Count preceding backslashes: an even count means unescaped.
		backslashes := 0
		for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
			backslashes++
		}
		if backslashes%2 == 0 {
			return i
		}
	}
	return -1
}

// trimToLastCloser cuts the text back to the last "}" or "]" found outside a
// string. Returns "" when there is none.
func trimToLastCloser(s string) string {
	inString := false
	escaped := false
	last := -1

	for i := 0; i < len(s); i++ {
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
		case '}', ']':
			last = i
		}
	}
	if last < 0 {
		return ""
	}
	return s[:last+1]
}

// closeBrackets appends the closers still required by candidate and
// test-parses the result. A candidate that ends inside an open string is not
// repairable this way.
func closeBrackets(candidate string) (string, bool) {
	state := scanState(candidate)
	if state.inString {
		return "", false
	}

	var b strings.Builder
	b.WriteString(candidate)
	for i := len(state.stack) - 1; i >= 0; i-- {
		switch state.stack[i] {
		case '{':
			b.WriteByte('}')
		case '[':
			b.WriteByte(']')
		}
	}

	repaired := b.String()
	if !json.Valid([]byte(repaired)) {
		return "", false
	}
	return repaired, true
}
