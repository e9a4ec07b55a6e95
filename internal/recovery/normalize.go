package recovery

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/canvass-labs/survey-cli/internal/model"
)

// Default strings applied by the exit gate.
const (
	defaultTitle       = "Untitled Survey"
	defaultDescription = "Survey recovered from generator output"
)

// fromObject coerces a generically parsed object into a Survey. Wrong types
// at expected keys are absorbed here: values are coerced where a sensible
// coercion exists and defaulted otherwise. Questions failing the text
// contract are dropped before inclusion.
func fromObject(obj map[string]any, opts Options) *model.Survey {
	s := &model.Survey{
		Title:         asString(obj["title"]),
		Description:   asString(obj["description"]),
		EstimatedTime: asInt(obj["estimated_time"]),
	}

	if meta, ok := obj["metadata"].(map[string]any); ok {
		s.Metadata = make(map[string]string, len(meta))
		for k, v := range meta {
			s.Metadata[k] = asString(v)
		}
	}

	if secs, ok := obj["sections"].([]any); ok {
		for _, raw := range secs {
			secObj, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			sec := coerceSection(secObj, opts)
			if len(sec.Questions) > 0 || sec.Title != "" {
				s.Sections = append(s.Sections, sec)
			}
		}
	}

	// A flat questions list only counts when no sections shape exists;
	// when both are present the flat list is dropped.
	if len(s.Sections) == 0 {
		if qs, ok := obj["questions"].([]any); ok {
			if questions := coerceQuestions(qs, opts); len(questions) > 0 {
				s.Sections = []model.Section{{
					ID:        1,
					Title:     "Survey Questions",
					Questions: questions,
				}}
			}
		}
	}

	return s
}

func coerceSection(obj map[string]any, opts Options) model.Section {
	sec := model.Section{
		ID:          asInt(obj["id"]),
		Title:       asString(obj["title"]),
		Description: asString(obj["description"]),
	}
	if qs, ok := obj["questions"].([]any); ok {
		sec.Questions = coerceQuestions(qs, opts)
	}
	return sec
}

func coerceQuestions(raw []any, opts Options) []model.Question {
	var out []model.Question
	for _, item := range raw {
		qObj, ok := item.(map[string]any)
		if !ok {
			// A bare string is treated as question text.
			if text, isStr := item.(string); isStr && opts.validText(text) {
				out = append(out, model.Question{Text: text, Type: model.TypeText})
			}
			continue
		}

		text := asString(qObj["text"])
		if text == "" {
			text = asString(qObj["question"])
		}
		if !opts.validText(text) {
			continue
		}

		q := model.Question{
			ID:       asString(qObj["id"]),
			Text:     text,
			Type:     model.ParseQuestionType(asString(qObj["type"])),
			Required: asBool(qObj["required"]),
			Category: asString(qObj["category"]),
		}
		for _, key := range []string{"options", "choices", "scale"} {
			if optsRaw, ok := qObj[key].([]any); ok {
				for _, o := range optsRaw {
					if v := asString(o); v != "" {
						q.Options = append(q.Options, v)
					}
				}
				break
			}
		}
		out = append(out, q)
	}
	return out
}

// normalize is the mandatory exit gate. Every pipeline path passes its
// result through here before returning, so the shape invariants hold no
// matter which strategy produced the survey: title/description/metadata
// defaulted, duplicate section ids merged, sections renumbered 1..N, every
// question carrying a unique id and a concrete type.
func normalize(s *model.Survey, opts Options) *model.Survey {
	if s == nil {
		s = &model.Survey{}
	}

	if s.Title == "" {
		s.Title = defaultTitle
	}
	if s.Description == "" {
		s.Description = defaultDescription
	}
	if s.Metadata == nil {
		s.Metadata = make(map[string]string)
	}
	if s.Sections == nil {
		s.Sections = []model.Section{}
	}

	s.Sections = mergeDuplicateSections(s.Sections)

	seenIDs := make(map[string]struct{})
	for i := range s.Sections {
		sec := &s.Sections[i]
		sec.ID = i + 1
		if sec.Title == "" {
			sec.Title = fmt.Sprintf("Section %d", sec.ID)
		}
		for j := range sec.Questions {
			normalizeQuestion(&sec.Questions[j], seenIDs)
		}
	}

	if s.EstimatedTime <= 0 {
		s.EstimatedTime = s.EstimateTime()
	}
	if s.ConfidenceScore < 0 {
		s.ConfidenceScore = 0
	}
	if s.ConfidenceScore > 1 {
		s.ConfidenceScore = 1
	}

	return s
}

// mergeDuplicateSections concatenates the question lists of sections sharing
// an id, keeping first-seen order. Sections without a positive id are never
// merged into each other; they keep their own slot and get renumbered.
func mergeDuplicateSections(sections []model.Section) []model.Section {
	merged := make([]model.Section, 0, len(sections))
	index := make(map[int]int)

	for _, sec := range sections {
		if sec.ID > 0 {
			if at, ok := index[sec.ID]; ok {
				merged[at].Questions = append(merged[at].Questions, sec.Questions...)
				continue
			}
			index[sec.ID] = len(merged)
		}
		merged = append(merged, sec)
	}
	return merged
}

func normalizeQuestion(q *model.Question, seen map[string]struct{}) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	if _, dup := seen[q.ID]; dup {
		base := q.ID
		for n := 2; ; n++ {
			candidate := fmt.Sprintf("%s-%d", base, n)
			if _, taken := seen[candidate]; !taken {
				q.ID = candidate
				break
			}
		}
	}
	seen[q.ID] = struct{}{}

	if q.Type == "" || q.Type == model.TypeUnknown {
		if len(q.Options) > 0 {
			q.Type = model.TypeMultipleChoice
		} else if q.Type == "" {
			q.Type = model.TypeText
		}
	}
	if q.Options == nil {
		q.Options = []string{}
	}
}

// --- coercion helpers ---

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return 0
}

func asBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "yes"
	}
	return false
}
