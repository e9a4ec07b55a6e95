package recovery

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/canvass-labs/survey-cli/internal/model"
)

// interrogativeWords mark a fragment as question-like when combined with a
// trailing question mark.
var interrogativeWords = []string{
	"what", "who", "when", "where", "why", "how", "which",
	"would", "could", "should", "can", "do", "does", "did",
	"are", "is", "will", "have", "has",
}

var quotedFragment = regexp.MustCompile(`"([^"]{6,500}\?)[^"]*"`)

// minimalFallback is the absolute last resort: one permissive scan for
// quoted substrings that look interrogative, wrapped as text questions up to
// the configured bound. When nothing qualifies it returns a survey with
// empty sections. It cannot fail. Title and description stay empty so the
// exit gate can fill them, or an earlier parse can supply its own.
func minimalFallback(text string, opts Options) *model.Survey {
	s := &model.Survey{}

	max := opts.MaxFallbackQuestions
	if max <= 0 {
		max = 1
	}

	var questions []model.Question
	for _, m := range quotedFragment.FindAllStringSubmatch(text, -1) {
		if len(questions) >= max {
			break
		}
		candidate := normalizeFragmentText(m[1])
		if !opts.validText(candidate) || !looksInterrogative(candidate) {
			continue
		}
		questions = append(questions, model.Question{
			ID:   fmt.Sprintf("fallback-%d", len(questions)+1),
			Text: candidate,
			Type: model.TypeText,
		})
	}

	if len(questions) > 0 {
		s.Sections = []model.Section{{
			ID:        1,
			Title:     "Recovered Questions",
			Questions: questions,
		}}
	}
	return s
}

// looksInterrogative requires a question mark plus a common wh-word or
// modal.
func looksInterrogative(text string) bool {
	if !strings.Contains(text, "?") {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range interrogativeWords {
		if strings.Contains(lower, w+" ") || strings.HasPrefix(lower, w) {
			return true
		}
	}
	return false
}
