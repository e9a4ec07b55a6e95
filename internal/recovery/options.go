package recovery

import (
	"strings"
	"time"

	"github.com/canvass-labs/survey-cli/internal/model"
)

// Options holds the tunable constants of the recovery pipeline. The defaults
// mirror the thresholds the generator's output was tuned against; they are
// exposed as configuration rather than re-derived.
type Options struct {
	// Question text bounds applied before a fragment becomes a Question.
	MinQuestionLen int
	MaxQuestionLen int

	// SimilarityThreshold is the token-overlap ratio above which two
	// recovered questions are considered duplicates.
	SimilarityThreshold float64

	// FastPathBytes is the input size above which the sanitizer switches to
	// a single-pass whitespace collapse instead of the quote-aware scan.
	FastPathBytes int

	// PatternBudget bounds total wall-clock time spent in pattern
	// reconstruction. On expiry the reconstructor returns whatever it has.
	PatternBudget time.Duration

	// MaxBraceCandidates bounds how many candidate start braces the
	// balanced extractor will try before giving up.
	MaxBraceCandidates int

	// MaxFallbackQuestions bounds how many interrogative fragments the
	// minimal fallback will wrap as questions.
	MaxFallbackQuestions int

	// SingleSectionMax is the question count at or below which the grouper
	// emits a single section instead of topical buckets.
	SingleSectionMax int

	// MinSectionSize is the smallest topical bucket emitted as its own
	// section; smaller buckets are merged into catch-all sections.
	MinSectionSize int

	// Topics overrides the built-in topical buckets used by the grouper.
	// Nil means DefaultTopics().
	Topics []TopicBucket
}

// DefaultOptions returns the pipeline defaults.
func DefaultOptions() Options {
	return Options{
		MinQuestionLen:       model.MinQuestionTextLen,
		MaxQuestionLen:       model.MaxQuestionTextLen,
		SimilarityThreshold:  0.8,
		FastPathBytes:        1 << 20,
		PatternBudget:        30 * time.Second,
		MaxBraceCandidates:   5,
		MaxFallbackQuestions: 5,
		SingleSectionMax:     5,
		MinSectionSize:       2,
	}
}

// validText applies the configured text bounds plus the alphabetic-rune rule.
func (o Options) validText(text string) bool {
	t := strings.TrimSpace(text)
	if len(t) < o.MinQuestionLen || len(t) > o.MaxQuestionLen {
		return false
	}
	return model.HasLetter(t)
}
