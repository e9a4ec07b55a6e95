package model

import (
	"strings"
	"unicode"
)

// QuestionType classifies how a question is answered.
type QuestionType string

const (
	TypeText           QuestionType = "text"
	TypeMultipleChoice QuestionType = "multiple_choice"
	TypeScale          QuestionType = "scale"
	TypeBoolean        QuestionType = "boolean"
	TypeRating         QuestionType = "rating"
	TypeDate           QuestionType = "date"
	TypeUnknown        QuestionType = "unknown"
)

// ParseQuestionType coerces an arbitrary inbound string to a known type.
// Unrecognized values map to TypeUnknown rather than failing.
func ParseQuestionType(s string) QuestionType {
	switch QuestionType(strings.ToLower(strings.TrimSpace(s))) {
	case TypeText, TypeMultipleChoice, TypeScale, TypeBoolean, TypeRating, TypeDate:
		return QuestionType(strings.ToLower(strings.TrimSpace(s)))
	case "multiplechoice", "choice", "select":
		return TypeMultipleChoice
	case "likert":
		return TypeScale
	case "yes_no", "yesno", "bool":
		return TypeBoolean
	case "open", "open_ended", "freetext", "free_text":
		return TypeText
	default:
		return TypeUnknown
	}
}

// Question is a single survey question.
type Question struct {
	ID       string       `json:"id"`
	Text     string       `json:"text"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options"`
	Required bool         `json:"required"`
	Category string       `json:"category,omitempty"`
}

// Question text bounds. Fragments outside these bounds are rejected before
// they ever become Questions.
const (
	MinQuestionTextLen = 6
	MaxQuestionTextLen = 500
)

// ValidText reports whether text satisfies the question text contract:
// trimmed length within the default bounds and at least one alphabetic rune.
func ValidText(text string) bool {
	t := strings.TrimSpace(text)
	if len(t) < MinQuestionTextLen || len(t) > MaxQuestionTextLen {
		return false
	}
	return HasLetter(t)
}

// HasLetter reports whether s contains at least one alphabetic rune.
func HasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Section groups questions under a topical heading.
type Section struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Survey is the structured output of the recovery pipeline. It is always
// structurally complete: title, description and sections are present even
// when sections is empty.
type Survey struct {
	Title           string            `json:"title"`
	Description     string            `json:"description"`
	Sections        []Section         `json:"sections"`
	Metadata        map[string]string `json:"metadata"`
	EstimatedTime   int               `json:"estimated_time"`
	ConfidenceScore float64           `json:"confidence_score"`
}

// QuestionCount returns the total number of questions across all sections.
func (s *Survey) QuestionCount() int {
	n := 0
	for _, sec := range s.Sections {
		n += len(sec.Questions)
	}
	return n
}

// EstimateTime returns a completion-time estimate in minutes. Open-ended
// questions are weighted heavier than choice questions.
func (s *Survey) EstimateTime() int {
	var secs int
	for _, sec := range s.Sections {
		for _, q := range sec.Questions {
			switch q.Type {
			case TypeText:
				secs += 45
			case TypeMultipleChoice, TypeBoolean:
				secs += 15
			default:
				secs += 20
			}
		}
	}
	mins := (secs + 59) / 60
	if mins < 1 && secs > 0 {
		mins = 1
	}
	return mins
}

// RecoveryAttempt records the outcome of one recovery strategy. Attempts are
// handed to the pipeline observer and discarded; they are never persisted by
// the pipeline itself.
type RecoveryAttempt struct {
	Strategy   string `json:"strategy"`
	OK         bool   `json:"ok"`
	Note       string `json:"note,omitempty"`
	DurationMS int64  `json:"duration_ms"`
}
