package recovery

import (
	"regexp"
	"strings"
)

// A patch is one textual repair. Patches are independent but cumulative:
// each applies to the output of the previous one, and the repairer reparses
// after every application.
type patch struct {
	name  string
	apply func(string) string
}

// patches is the ordered repair table. Order matters: cheap, safe fixes run
// before the heuristic quote escaping.
var patches = []patch{
	{"collapse_string_newlines", collapseStringNewlines},
	{"comma_between_keys", insertCommaBetweenStrings},
	{"comma_between_braces", insertCommaBetweenBraces},
	{"strip_trailing_commas", stripTrailingCommas},
	{"escape_interior_quotes", escapeInteriorQuotes},
}

// repairProgressive applies the patch table to unparseable text, reparsing
// after each patch and stopping at the first success. Returns the parsed
// object, the name of the patch that unlocked the parse, and whether any
// patch succeeded.
func repairProgressive(text string) (map[string]any, string, bool) {
	patched := text
	for _, p := range patches {
		patched = p.apply(patched)
		if obj, fail := parseObject(patched); fail == nil {
			return obj, p.name, true
		}
	}
	return nil, "", false
}

// collapseStringNewlines replaces raw newlines inside quoted strings with a
// single space. A no-op after the sanitizer, but the repairer makes no
// assumptions about its input.
func collapseStringNewlines(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inString := false
	escaped := false
	pendingSpace := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString && (c == '\n' || c == '\r') {
			pendingSpace = true
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteByte(c)
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		} else if c == '"' {
			inString = true
		}
	}
	return b.String()
}

// Two quoted tokens separated only by whitespace are missing a comma. The
// gap between a closing and an opening quote is always outside a string, so
// a plain pattern is safe here.
var missingCommaStrings = regexp.MustCompile(`"\s+"`)

func insertCommaBetweenStrings(text string) string {
	return missingCommaStrings.ReplaceAllStringFunc(text, func(m string) string {
		return `", "`
	})
}

var (
	missingCommaBraces   = regexp.MustCompile(`}\s*{`)
	missingCommaBrackets = regexp.MustCompile(`]\s*\[`)
	missingCommaBraceKey = regexp.MustCompile(`}\s+"`)
)

func insertCommaBetweenBraces(text string) string {
	text = missingCommaBraces.ReplaceAllString(text, "}, {")
	text = missingCommaBrackets.ReplaceAllString(text, "], [")
	return missingCommaBraceKey.ReplaceAllString(text, `}, "`)
}

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

func stripTrailingCommas(text string) string {
	return trailingComma.ReplaceAllString(text, "$1")
}

// escapeInteriorQuotes escapes unescaped double quotes that appear inside a
// string value when they are clearly non-structural: the quote is followed
// by a character that could not continue valid JSON after a string close.
func escapeInteriorQuotes(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 16)
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]

		if !inString {
			b.WriteByte(c)
			if c == '"' {
				inString = true
			}
			continue
		}

		if escaped {
			escaped = false
			b.WriteByte(c)
			continue
		}
		if c == '\\' {
			escaped = true
			b.WriteByte(c)
			continue
		}
		if c != '"' {
			b.WriteByte(c)
			continue
		}

		// A quote while inside a string: structural only if what follows
		// could legally follow a closed string.
		if quoteLooksStructural(text, i+1) {
			inString = false
			b.WriteByte(c)
		} else {
			b.WriteString(`\"`)
		}
	}
	return b.String()
}

// quoteLooksStructural reports whether the text after a closing quote could
// be valid JSON continuation.
func quoteLooksStructural(text string, after int) bool {
	for i := after; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\n' || c == '\r' || c == '\t' {
			continue
		}
		return structural(c)
	}
	// Quote at end of input closes the string.
	return true
}
