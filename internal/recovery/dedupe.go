package recovery

import (
	"strings"
	"unicode"

	"github.com/canvass-labs/survey-cli/internal/model"
)

// dedupe removes near-duplicate questions recovered by multiple matchers.
// Each candidate is compared against every previously accepted question by
// token-set overlap; candidates above the similarity threshold are dropped.
// First-seen order is preserved, so output from the more structured matchers
// wins over later loose matches of the same content.
func dedupe(questions []model.Question, threshold float64) []model.Question {
	unique := make([]model.Question, 0, len(questions))
	sets := make([]map[string]struct{}, 0, len(questions))

	for _, q := range questions {
		set := tokenSet(q.Text)
		dup := false
		for _, seen := range sets {
			if tokenOverlap(set, seen) >= threshold {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		unique = append(unique, q)
		sets = append(sets, set)
	}
	return unique
}

// tokenSet builds a case-insensitive bag of alphanumeric words.
func tokenSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// tokenOverlap returns the overlap coefficient of two token sets: shared
// tokens over the smaller set, so a fragment that is a strict subset of an
// already-accepted question still registers as a duplicate. Empty sets are
// never similar to anything.
func tokenOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	shared := 0
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}
