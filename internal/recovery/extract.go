package recovery

import "strings"

// extractBalanced isolates a syntactically complete braced region from
// surrounding noise: it finds a candidate '{', scans forward tracking brace
// depth while staying quote/escape-aware, and tries to parse the substring
// where depth returns to zero. On parse failure it resumes from the next
// candidate brace, up to maxCandidates attempts, which handles trailing
// narrative text and multiple juxtaposed objects.
func extractBalanced(text string, maxCandidates int) (map[string]any, bool) {
	from := 0
	for attempt := 0; attempt < maxCandidates; attempt++ {
		start := strings.IndexByte(text[from:], '{')
		if start < 0 {
			return nil, false
		}
		start += from

		end, ok := balancedEnd(text, start)
		if !ok {
			return nil, false
		}

		if obj, fail := parseObject(text[start : end+1]); fail == nil {
			return obj, true
		}
		from = start + 1
	}
	return nil, false
}

// balancedEnd returns the index of the brace closing the region opened at
// start, or false when the region never closes.
func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
