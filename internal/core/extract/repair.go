package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"recipe-scanner/internal/pkg/common"
)

// ParseModelJSON turns a raw model reply into a decoded JSON object. It
// tolerates markdown code fences, leading prose, bare object keys, and
// truncated output. Failure wraps ErrMalformedResponse; it never panics on
// any input.
func ParseModelJSON(content string) (map[string]interface{}, error) {
	cleaned := StripFences(content)

	start := strings.Index(cleaned, "{")
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON object in reply", common.ErrMalformedResponse)
	}
	cleaned = cleaned[start:]

	var raw map[string]interface{}
	if err := common.ParseJSON(cleaned, &raw); err == nil {
		return raw, nil
	}

	// Models occasionally emit unquoted keys.
	quoted := common.QuoteJSONKeys(cleaned)
	if err := common.ParseJSON(quoted, &raw); err == nil {
		return raw, nil
	}

	// Truncation heuristic: a reply cut off mid-generation will not end
	// with a closing brace. Rewind to the last complete value boundary and
	// close what is still open.
	if repaired, ok := RepairTruncated(quoted); ok {
		if err := common.ParseJSON(repaired, &raw); err == nil {
			return raw, nil
		}
	}

	return nil, fmt.Errorf("%w: unparseable after repair", common.ErrMalformedResponse)
}

// StripFences removes a markdown code fence wrapper (``` or ```json) from a
// model reply.
func StripFences(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// RepairTruncated truncates s to its last syntactically complete value
// boundary and appends the closing delimiters still open at that point.
// ok=false when no candidate boundary yields valid JSON.
func RepairTruncated(s string) (string, bool) {
	type boundary struct {
		end   int
		stack string
	}

	var stack []byte
	var delimBoundaries, stringBoundaries []boundary
	inString := false
	escaped := false

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
				// A closed string is a fallback boundary. Key strings are
				// filtered out below by the validity check.
				stringBoundaries = append(stringBoundaries, boundary{i + 1, string(stack)})
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}':
			if len(stack) == 0 || stack[len(stack)-1] != '{' {
				return "", false
			}
			stack = stack[:len(stack)-1]
			delimBoundaries = append(delimBoundaries, boundary{i + 1, string(stack)})
		case ']':
			if len(stack) == 0 || stack[len(stack)-1] != '[' {
				return "", false
			}
			stack = stack[:len(stack)-1]
			delimBoundaries = append(delimBoundaries, boundary{i + 1, string(stack)})
		}
	}

	// Prefer complete object/array boundaries, so a half-written trailing
	// element is dropped rather than kept with a clipped string. Boundaries
	// are walked from the end to keep as much data as possible.
	for _, boundaries := range [][]boundary{delimBoundaries, stringBoundaries} {
		for i := len(boundaries) - 1; i >= 0; i-- {
			b := boundaries[i]
			repaired := s[:b.end] + closers(b.stack)
			if json.Valid([]byte(repaired)) {
				return repaired, true
			}
		}
	}
	return "", false
}

func closers(stack string) string {
	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
