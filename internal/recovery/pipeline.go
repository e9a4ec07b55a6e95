package recovery

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/canvass-labs/survey-cli/internal/model"
)

// Observer receives one RecoveryAttempt per strategy tried. Observers are
// purely observational; the pipeline ignores anything they do. A nil
// observer logs attempts at debug level.
type Observer func(model.RecoveryAttempt)

// strategy is one named recovery approach. attempt returns the recovered
// survey, a diagnostic note, and whether the strategy succeeded.
type strategy struct {
	name    string
	attempt func(text string) (*model.Survey, string, bool)
}

// Pipeline turns arbitrary raw generator output into a well-formed Survey.
// It is a pure function of its input and options: no state survives a call,
// so a single Pipeline may be shared freely across goroutines. It exposes no
// cancellation point; each stage carries its own internal bound, and callers
// needing a hard timeout wrap the call externally.
type Pipeline struct {
	opts    Options
	observe Observer
}

// New creates a Pipeline. A nil observer gets a default that logs each
// attempt via the global zap logger at debug level.
func New(opts Options, obs Observer) *Pipeline {
	if obs == nil {
		obs = func(a model.RecoveryAttempt) {
			zap.L().Debug("recovery attempt",
				zap.String("strategy", a.Strategy),
				zap.Bool("ok", a.OK),
				zap.String("note", a.Note),
				zap.Int64("duration_ms", a.DurationMS),
			)
		}
	}
	return &Pipeline{opts: opts, observe: obs}
}

// Recover runs the strategy chain over raw text and always returns a
// structurally valid Survey. Malformed content never produces an error; poor
// input only lowers the confidence score of the result.
func (p *Pipeline) Recover(raw string) *model.Survey {
	text := Sanitize(raw, p.opts)

	// A strategy that parses a question-free object returns it alongside
	// ok=false. The first such shell is retained so its title and
	// description survive into whatever strategy eventually wins.
	var shell *model.Survey

	for _, st := range p.strategies() {
		start := time.Now()
		survey, note, ok := st.attempt(text)
		p.observe(model.RecoveryAttempt{
			Strategy:   st.name,
			OK:         ok,
			Note:       note,
			DurationMS: time.Since(start).Milliseconds(),
		})
		if !ok {
			if shell == nil && survey != nil && (survey.Title != "" || survey.Description != "") {
				shell = survey
			}
			continue
		}
		if shell != nil {
			if survey.Title == "" {
				survey.Title = shell.Title
			}
			if survey.Description == "" {
				survey.Description = shell.Description
			}
		}
		return normalize(survey, p.opts)
	}

	// Unreachable: minimal_fallback cannot fail. Kept so the compiler sees
	// a return on every path.
	return normalize(&model.Survey{}, p.opts)
}

// strategies returns the ordered strategy table. The final entry always
// succeeds, so iteration always terminates with a survey.
func (p *Pipeline) strategies() []strategy {
	return []strategy{
		{name: "direct_parse", attempt: p.attemptDirect},
		{name: "balanced_extract", attempt: p.attemptBalanced},
		{name: "progressive_repair", attempt: p.attemptRepair},
		{name: "pattern_reconstruct", attempt: p.attemptReconstruct},
		{name: "minimal_fallback", attempt: p.attemptFallback},
	}
}

func (p *Pipeline) attemptDirect(text string) (*model.Survey, string, bool) {
	obj, fail := parseObject(text)
	if fail != nil {
		return nil, fmt.Sprintf("parse failed at offset %d: %s", fail.Offset, fail.Msg), false
	}
	s := fromObject(obj, p.opts)
	// The whole input parsed as one object, so there is no surrounding text
	// left to mine; a titled survey with empty sections is a complete result
	// here, not a shell to fall through on.
	if s.QuestionCount() == 0 && s.Title == "" && s.Description == "" {
		return nil, "parsed object holds no survey content", false
	}
	s.ConfidenceScore = 0.9
	return s, "", true
}

func (p *Pipeline) attemptBalanced(text string) (*model.Survey, string, bool) {
	obj, ok := extractBalanced(text, p.opts.MaxBraceCandidates)
	if !ok {
		return nil, "no parseable balanced region", false
	}
	s := fromObject(obj, p.opts)
	if !usable(s) {
		return s, "balanced region holds no survey content", false
	}
	s.ConfidenceScore = 0.75
	return s, "", true
}

func (p *Pipeline) attemptRepair(text string) (*model.Survey, string, bool) {
	obj, patchName, ok := repairProgressive(text)
	if !ok {
		return nil, "no patch combination parsed", false
	}
	s := fromObject(obj, p.opts)
	if !usable(s) {
		return s, "repaired object holds no survey content", false
	}
	s.ConfidenceScore = 0.6
	return s, "repaired by " + patchName, true
}

func (p *Pipeline) attemptReconstruct(text string) (*model.Survey, string, bool) {
	questions, stats := reconstruct(text, p.opts)
	note := fmt.Sprintf("accepted=%d rejected=%d timed_out=%t",
		stats.Accepted, stats.Rejected, stats.TimedOut)
	if by := stats.byMatcher(); by != "" {
		note += " " + by
	}
	if len(questions) == 0 {
		return nil, note, false
	}

	questions = dedupe(questions, p.opts.SimilarityThreshold)
	s := &model.Survey{
		Sections:        groupSections(questions, p.opts),
		ConfidenceScore: reconstructConfidence(stats),
	}
	return s, note, true
}

func (p *Pipeline) attemptFallback(text string) (*model.Survey, string, bool) {
	s := minimalFallback(text, p.opts)
	if s.QuestionCount() > 0 {
		s.ConfidenceScore = 0.1
		return s, fmt.Sprintf("wrapped %d interrogative fragments", s.QuestionCount()), true
	}
	s.ConfidenceScore = 0.05
	return s, "no recoverable content, returning empty survey", true
}

// usable reports whether a coerced survey carries enough content to stand as
// a parse result on its own. An extracted or repaired object with no
// questions falls through so later strategies can mine the surrounding text;
// its title and description are not lost, the chain carries them forward.
func usable(s *model.Survey) bool {
	return s.QuestionCount() > 0 || (s.Title != "" && len(s.Sections) > 0)
}

// reconstructConfidence scales confidence by the fragment acceptance ratio:
// heavy rejection means the matchers were scraping noise.
func reconstructConfidence(stats reconstructStats) float64 {
	total := stats.Accepted + stats.Rejected
	if total == 0 {
		return 0.2
	}
	ratio := float64(stats.Accepted) / float64(total)
	return 0.2 + 0.4*ratio
}
