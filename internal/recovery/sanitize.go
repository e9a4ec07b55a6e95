package recovery

import (
	"strings"
)

// Sanitize normalizes raw generator output for parsing. It never fails.
//
// The full pass trims prose around the outermost braces, strips ASCII control
// characters (including inside quoted strings, since the generator injects
// literal newlines mid-token), collapses whitespace outside quoted strings
// while preserving remaining string contents verbatim, and drops trailing
// commas. Inputs larger than opts.FastPathBytes take a cheaper single-pass
// whitespace collapse instead so pathological sizes stay bounded.
func Sanitize(raw string, opts Options) string {
	text := strings.ToValidUTF8(raw, "")

	if opts.FastPathBytes > 0 && len(text) > opts.FastPathBytes {
		return sanitizeFast(text)
	}

	text = trimToBraces(text)
	text = stripC1(text)
	return scanNormalize(text)
}

// trimToBraces drops prose and markdown fences surrounding the outermost
// braced region. Text without a braced region is returned trimmed, so the
// pattern reconstructor still sees markdown-style questions.
func trimToBraces(text string) string {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	// No braced region: strip code fences and trim.
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// stripC1 removes DEL and the C1 control runes (U+007F-U+009F), which are
// multi-byte in UTF-8 and so easier to drop in a rune pass before the
// byte-wise scan.
func stripC1(text string) string {
	return strings.Map(func(r rune) rune {
		if r >= 0x7F && r <= 0x9F {
			return -1
		}
		return r
	}, text)
}

// structural reports whether c is a JSON structural character.
func structural(c byte) bool {
	switch c {
	case '{', '}', '[', ']', ':', ',':
		return true
	}
	return false
}

// ctl reports whether c is a C0 control byte.
func ctl(c byte) bool { return c < 0x20 }

// scanNormalize is the quote-aware pass. Inside quoted strings, control
// characters are dropped and everything else passes through verbatim.
// Outside strings, whitespace runs adjacent to structural characters vanish
// and other runs collapse to a single space; trailing commas before a
// closing bracket are dropped in the same scan. Unbalanced quotes are
// tolerated: the remainder is treated as in-string and preserved.
func scanNormalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if inString {
			if ctl(c) {
				// Injected mid-token; lossy removal.
				continue
			}
			b.WriteByte(c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}

		switch {
		case c == '"':
			inString = true
			b.WriteByte(c)

		case c == ' ' || ctl(c):
			// Consume the whole whitespace/control run, then decide
			// whether a separator survives.
			j := i
			for j < len(text) && (text[j] == ' ' || ctl(text[j])) {
				j++
			}
			prevStructural := b.Len() == 0 || structural(lastByte(&b))
			nextStructural := j >= len(text) || structural(text[j])
			if !prevStructural && !nextStructural {
				b.WriteByte(' ')
			}
			i = j - 1

		case c == ',':
			// Drop the comma when the next non-whitespace byte closes
			// a scope.
			j := i + 1
			for j < len(text) && (text[j] == ' ' || ctl(text[j])) {
				j++
			}
			if j < len(text) && (text[j] == '}' || text[j] == ']') {
				continue
			}
			b.WriteByte(c)

		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// lastByte returns the final byte written to b. Caller guarantees non-empty.
func lastByte(b *strings.Builder) byte {
	s := b.String()
	return s[len(s)-1]
}

// sanitizeFast is the size-bounded path: one pass collapsing whitespace runs
// to a single space, no quote tracking. Lossier than the full scan but O(n)
// with a small constant on multi-megabyte inputs.
func sanitizeFast(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			space = true
			continue
		}
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(r)
	}
	return trimToBraces(b.String())
}
