package recovery

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/canvass-labs/survey-cli/internal/model"
)

// fragment is a candidate question recovered from unparseable text, before
// validation and deduplication.
type fragment struct {
	ID      string
	Text    string
	Options []string
}

// reconstructStats carries diagnostic counts out of a reconstruction pass.
// Rejected fragments are counted here and nowhere else; they are never
// emitted.
type reconstructStats struct {
	Accepted int
	Rejected int
	TimedOut bool
	ByName   map[string]int
}

// byMatcher renders the per-matcher acceptance counts in pattern-table order,
// for the attempt note.
func (s reconstructStats) byMatcher() string {
	var parts []string
	for _, m := range matchers {
		if n := s.ByName[m.name]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", m.name, n))
		}
	}
	return strings.Join(parts, " ")
}

// matcher pairs a compiled pattern with a typed extraction func, so adding
// or reordering patterns cannot silently shift submatch indices.
type matcher struct {
	name string
	re   *regexp.Regexp
	// extract receives the submatch index vector and the full text and
	// returns the fragment plus the byte offset where option scanning
	// should begin.
	extract func(loc []int, text string) (fragment, int)
}

// The pattern table, most structured first. All patterns operate on
// sanitized text, where newlines may already have collapsed to spaces, so
// none of them rely on line anchors.
var matchers = []matcher{
	{
		name: "id_text_pair",
		re: regexp.MustCompile(
			`"id"\s*:\s*"([^"]{1,64})"\s*,?\s*"(?:text|question)"\s*:\s*"((?:[^"\\]|\\.)+?)"`),
		extract: func(loc []int, text string) (fragment, int) {
			return fragment{
				ID:   text[loc[2]:loc[3]],
				Text: text[loc[4]:loc[5]],
			}, loc[1]
		},
	},
	{
		name: "text_id_pair",
		re: regexp.MustCompile(
			`"(?:text|question)"\s*:\s*"((?:[^"\\]|\\.)+?)"\s*,?\s*"id"\s*:\s*"([^"]{1,64})"`),
		extract: func(loc []int, text string) (fragment, int) {
			return fragment{
				ID:   text[loc[4]:loc[5]],
				Text: text[loc[2]:loc[3]],
			}, loc[1]
		},
	},
	{
		// Tolerates a missing key quote or colon: `text "..."`,
		// `"question" "..."`.
		name: "flexible_text_field",
		re: regexp.MustCompile(
			`"?(?:text|question)"?\s*:?\s*"((?:[^"\\]|\\.)+?)"`),
		extract: func(loc []int, text string) (fragment, int) {
			return fragment{Text: text[loc[2]:loc[3]]}, loc[1]
		},
	},
	{
		// Markdown enumeration: `3) What is your favorite color?`.
		name: "markdown_enumeration",
		re: regexp.MustCompile(
			`(?:^|\s)\d{1,3}[).:]\s+([^?{}\[\]"]{2,498}\?)`),
		extract: func(loc []int, text string) (fragment, int) {
			return fragment{Text: text[loc[2]:loc[3]]}, loc[1]
		},
	},
	{
		// Bulleted question line.
		name: "bullet_question",
		re: regexp.MustCompile(
			`(?:^|\s)[-*•]\s+([^?{}\[\]"•]{2,498}\?)`),
		extract: func(loc []int, text string) (fragment, int) {
			return fragment{Text: text[loc[2]:loc[3]]}, loc[1]
		},
	},
	{
		// Last resort: any capitalized run ending in a question mark.
		name: "bare_interrogative",
		re: regexp.MustCompile(
			`([A-Z][^?.!{}\[\]":]{4,498}\?)`),
		extract: func(loc []int, text string) (fragment, int) {
			return fragment{Text: text[loc[2]:loc[3]]}, loc[1]
		},
	},
}

// budgetCheckEvery is how many matches are processed between deadline checks.
const budgetCheckEvery = 32

// reconstruct runs the pattern table over possibly-unparseable text and
// returns validated questions in match order. No matcher failure propagates:
// a pattern that matches nothing simply contributes nothing. Work is bounded
// by the configured wall-clock budget; on expiry, whatever has been
// accumulated is returned.
func reconstruct(text string, opts Options) ([]model.Question, reconstructStats) {
	stats := reconstructStats{ByName: make(map[string]int)}
	deadline := time.Now().Add(opts.PatternBudget)

	var questions []model.Question
	seq := 0

	for _, m := range matchers {
		if time.Now().After(deadline) {
			stats.TimedOut = true
			break
		}

		locs := m.re.FindAllStringSubmatchIndex(text, -1)
		for i, loc := range locs {
			if i%budgetCheckEvery == budgetCheckEvery-1 && time.Now().After(deadline) {
				stats.TimedOut = true
				break
			}

			frag, tail := m.extract(loc, text)
			frag.Text = normalizeFragmentText(frag.Text)
			if !opts.validText(frag.Text) {
				stats.Rejected++
				continue
			}

			if len(frag.Options) == 0 {
				frag.Options = extractOptions(text, tail)
			}

			seq++
			q := model.Question{
				ID:      frag.ID,
				Text:    frag.Text,
				Type:    model.TypeText,
				Options: frag.Options,
			}
			if q.ID == "" {
				q.ID = fmt.Sprintf("q%d", seq)
			}
			if len(q.Options) > 0 {
				q.Type = model.TypeMultipleChoice
			}

			questions = append(questions, q)
			stats.Accepted++
			stats.ByName[m.name]++
		}
		if stats.TimedOut {
			break
		}
	}

	return questions, stats
}

// escapedWhitespace matches escape sequences the generator leaves inside
// recovered text.
var escapedWhitespace = regexp.MustCompile(`\\[nrt]`)
var multiSpace = regexp.MustCompile(`\s{2,}`)

// normalizeFragmentText collapses real and escaped newlines to single spaces
// and trims the result.
func normalizeFragmentText(s string) string {
	s = escapedWhitespace.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ").Replace(s)
	s = multiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// optionWindow bounds how far past a matched question the option scan looks.
const optionWindow = 320

var (
	optionsArray = regexp.MustCompile(
		`"(?:options|choices|scale)"\s*:?\s*\[([^\]]*)`)
	quotedItem = regexp.MustCompile(`"((?:[^"\\]|\\.)+?)"`)
	bulletItem = regexp.MustCompile(
		`(?:^|\s)(?:[-*•]|[a-dA-D][).])\s+([A-Za-z0-9][^-*•?]{0,60})`)
)

// extractOptions scans a bounded window following a matched question for a
// local options/choices/scale array, falling back to bullet or lettered
// option lines. Returns nil when fewer than two plausible options appear.
func extractOptions(text string, from int) []string {
	if from >= len(text) {
		return nil
	}
	end := from + optionWindow
	if end > len(text) {
		end = len(text)
	}
	window := text[from:end]

	if m := optionsArray.FindStringSubmatch(window); m != nil {
		var opts []string
		for _, item := range quotedItem.FindAllStringSubmatch(m[1], -1) {
			if v := normalizeFragmentText(item[1]); v != "" {
				opts = append(opts, v)
			}
		}
		if len(opts) >= 2 {
			return opts
		}
		return nil
	}

	// Markdown-style options immediately after the question. Stop at the
	// next enumerated question so one question's scan does not swallow the
	// next question's text.
	if cut := nextEnumeration.FindStringIndex(window); cut != nil {
		window = window[:cut[0]]
	}
	var opts []string
	for _, item := range bulletItem.FindAllStringSubmatch(window, -1) {
		v := strings.TrimSpace(item[1])
		if v != "" && !strings.Contains(v, "?") {
			opts = append(opts, v)
		}
	}
	if len(opts) >= 2 {
		return opts
	}
	return nil
}

var nextEnumeration = regexp.MustCompile(`\s\d{1,3}[).:]\s`)
