package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseQuestionType(t *testing.T) {
	tests := []struct {
		in   string
		want QuestionType
	}{
		{"text", TypeText},
		{"multiple_choice", TypeMultipleChoice},
		{"MultipleChoice", TypeMultipleChoice},
		{"select", TypeMultipleChoice},
		{"likert", TypeScale},
		{"  scale ", TypeScale},
		{"yes_no", TypeBoolean},
		{"open_ended", TypeText},
		{"rating", TypeRating},
		{"date", TypeDate},
		{"banana", TypeUnknown},
		{"", TypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuestionType(tt.in))
		})
	}
}

func TestValidText(t *testing.T) {
	assert.True(t, ValidText("What is your name?"))
	assert.True(t, ValidText("  padded but fine  "))
	assert.False(t, ValidText(""))
	assert.False(t, ValidText("Hi?"), "below minimum length")
	assert.False(t, ValidText("123456789"), "no alphabetic characters")
	assert.False(t, ValidText("?!... 42 ---"), "punctuation and digits only")
	assert.False(t, ValidText(strings.Repeat("a", 501)), "above maximum length")
	assert.True(t, ValidText(strings.Repeat("a", 500)))
}

func TestQuestionCount(t *testing.T) {
	s := Survey{
		Sections: []Section{
			{ID: 1, Questions: []Question{{Text: "one"}, {Text: "two"}}},
			{ID: 2, Questions: []Question{{Text: "three"}}},
		},
	}
	assert.Equal(t, 3, s.QuestionCount())

	empty := Survey{}
	assert.Equal(t, 0, empty.QuestionCount())
}

func TestEstimateTime(t *testing.T) {
	s := Survey{
		Sections: []Section{
			{Questions: []Question{
				{Type: TypeText},           // 45s
				{Type: TypeMultipleChoice}, // 15s
				{Type: TypeScale},          // 20s
			}},
		},
	}
	assert.Equal(t, 2, s.EstimateTime(), "80s rounds up to 2 minutes")

	empty := Survey{}
	assert.Equal(t, 0, empty.EstimateTime())

	one := Survey{Sections: []Section{{Questions: []Question{{Type: TypeBoolean}}}}}
	assert.Equal(t, 1, one.EstimateTime(), "any questions take at least a minute")
}
