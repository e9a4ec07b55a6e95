package recovery

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvass-labs/survey-cli/internal/model"
)

// interleave inserts sep between every rune of s.
func interleave(s, sep string) string {
	var b strings.Builder
	for _, r := range s {
		b.WriteRune(r)
		b.WriteString(sep)
	}
	return b.String()
}

func TestRecover_WhitespaceRiddledJSON(t *testing.T) {
	src := `{ "title": "Test", "sections": [{"id":1,"questions":[{"text":"Question one?"},{"text":"Question two?"}]}] }`
	in := interleave(src, "\n")

	var attempts []model.RecoveryAttempt
	p := New(DefaultOptions(), func(a model.RecoveryAttempt) { attempts = append(attempts, a) })

	s := p.Recover(in)
	require.NotNil(t, s)
	assert.Equal(t, "Test", s.Title)
	require.Len(t, s.Sections, 1)
	require.Len(t, s.Sections[0].Questions, 2)
	assert.Equal(t, "Question one?", s.Sections[0].Questions[0].Text)
	assert.Equal(t, "Question two?", s.Sections[0].Questions[1].Text)

	require.NotEmpty(t, attempts)
	assert.Equal(t, "direct_parse", attempts[len(attempts)-1].Strategy)
	assert.True(t, attempts[len(attempts)-1].OK)
}

func TestRecover_MarkdownEnumeration(t *testing.T) {
	in := "The model refused to emit JSON.\n3) What is your favorite color?\n"

	p := New(DefaultOptions(), nil)
	s := p.Recover(in)

	require.NotNil(t, s)
	require.Len(t, s.Sections, 1)
	require.NotEmpty(t, s.Sections[0].Questions)
	assert.Equal(t, "What is your favorite color?", s.Sections[0].Questions[0].Text)
}

func TestRecover_EmptyInput(t *testing.T) {
	p := New(DefaultOptions(), nil)
	s := p.Recover("")

	require.NotNil(t, s)
	assert.Equal(t, defaultTitle, s.Title)
	assert.NotNil(t, s.Sections)
	assert.Empty(t, s.Sections)
	assert.NotNil(t, s.Metadata)
}

func TestRecover_Totality(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"pure prose", "The quick brown fox jumps over the lazy dog. No survey here."},
		{"binary garbage", "\x00\x01\x02\xff\xfe\x7f\x1b[0m"},
		{"brace soup", "{{{{}}}} {]{]{]"},
		{"unclosed string", `{"title": "never ends`},
		{"huge", strings.Repeat("lorem ipsum dolor { sit amet ", 100000)},
	}

	p := New(DefaultOptions(), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := p.Recover(tt.in)
			require.NotNil(t, s)
			assert.NotEmpty(t, s.Title)
			assert.NotEmpty(t, s.Description)
			assert.NotNil(t, s.Sections)
			assert.NotNil(t, s.Metadata)
			for _, sec := range s.Sections {
				assert.Positive(t, sec.ID)
				for _, q := range sec.Questions {
					assert.NotEmpty(t, q.ID)
					assert.True(t, model.ValidText(q.Text), "invalid question text emitted: %q", q.Text)
					assert.NotNil(t, q.Options)
				}
			}
		})
	}
}

func TestRecover_RoundTrip(t *testing.T) {
	src := `{"title":"T","description":"D","sections":[{"id":1,"title":"S","questions":[{"id":"q1","text":"Do you like this product?","type":"text"}]}]}`

	p := New(DefaultOptions(), nil)
	s := p.Recover(src)

	var direct struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Sections    []struct {
			Title     string `json:"title"`
			Questions []struct {
				ID   string `json:"id"`
				Text string `json:"text"`
			} `json:"questions"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal([]byte(src), &direct))

	assert.Equal(t, direct.Title, s.Title)
	assert.Equal(t, direct.Description, s.Description)
	require.Len(t, s.Sections, len(direct.Sections))
	assert.Equal(t, direct.Sections[0].Title, s.Sections[0].Title)
	require.Len(t, s.Sections[0].Questions, 1)
	assert.Equal(t, direct.Sections[0].Questions[0].ID, s.Sections[0].Questions[0].ID)
	assert.Equal(t, direct.Sections[0].Questions[0].Text, s.Sections[0].Questions[0].Text)
	assert.Equal(t, model.TypeText, s.Sections[0].Questions[0].Type)
}

func TestRecover_DirectParseEmptySections(t *testing.T) {
	in := `{"title":"Test","description":"D","sections":[]}`

	var winner string
	p := New(DefaultOptions(), func(a model.RecoveryAttempt) {
		if a.OK {
			winner = a.Strategy
		}
	})

	s := p.Recover(in)
	assert.Equal(t, "direct_parse", winner)
	assert.Equal(t, "Test", s.Title)
	assert.Equal(t, "D", s.Description)
	assert.Empty(t, s.Sections)
	assert.InDelta(t, 0.9, s.ConfidenceScore, 0.001)
}

func TestRecover_EmbeddedEmptyObjectKeepsTitle(t *testing.T) {
	// The extracted object has no questions, so the chain keeps looking, but
	// its title and description must survive into the final result.
	in := `Here is the survey so far: {"title": "Catalog Feedback", "description": "Tell us about the catalog", "sections": []} more to come.`

	var winner string
	p := New(DefaultOptions(), func(a model.RecoveryAttempt) {
		if a.OK {
			winner = a.Strategy
		}
	})

	s := p.Recover(in)
	assert.Equal(t, "minimal_fallback", winner)
	assert.Equal(t, "Catalog Feedback", s.Title)
	assert.Equal(t, "Tell us about the catalog", s.Description)
	assert.Zero(t, s.QuestionCount())
}

func TestRecover_RepairedInput(t *testing.T) {
	// Missing comma between the two question objects.
	in := `{"title": "Broken", "sections": [{"id": 1, "questions": [{"text": "Question one here?"} {"text": "Question two here?"}]}]}`

	var repaired bool
	p := New(DefaultOptions(), func(a model.RecoveryAttempt) {
		if a.Strategy == "progressive_repair" && a.OK {
			repaired = true
		}
	})

	s := p.Recover(in)
	assert.True(t, repaired, "expected the repair strategy to win")
	assert.Equal(t, "Broken", s.Title)
	assert.Equal(t, 2, s.QuestionCount())
	assert.InDelta(t, 0.6, s.ConfidenceScore, 0.001)
}

func TestRecover_ObjectWithTrailingNarrative(t *testing.T) {
	in := `{"title": "Padded", "questions": [{"text": "How often do you shop online?"}]} I hope this helps! Let me know.`

	p := New(DefaultOptions(), nil)
	s := p.Recover(in)

	assert.Equal(t, "Padded", s.Title)
	require.Equal(t, 1, s.QuestionCount())
	assert.Equal(t, "How often do you shop online?", s.Sections[0].Questions[0].Text)
}

func TestRecover_FallbackInterrogative(t *testing.T) {
	// Lowercase keeps this below the pattern matchers' radar, so only the
	// minimal fallback's quoted-interrogative scan can recover it.
	in := `completely broken output but it mentions "would you recommend us to a friend?" somewhere`

	var winner string
	p := New(DefaultOptions(), func(a model.RecoveryAttempt) {
		if a.OK {
			winner = a.Strategy
		}
	})

	s := p.Recover(in)
	assert.Equal(t, "minimal_fallback", winner)
	require.Equal(t, 1, s.QuestionCount())
	assert.Equal(t, "would you recommend us to a friend?", s.Sections[0].Questions[0].Text)
	assert.InDelta(t, 0.1, s.ConfidenceScore, 0.001)
}

func TestRecover_ReconstructNoteNamesMatchers(t *testing.T) {
	in := "The model refused to emit JSON.\n3) What is your favorite color?\n"

	var note string
	p := New(DefaultOptions(), func(a model.RecoveryAttempt) {
		if a.Strategy == "pattern_reconstruct" {
			note = a.Note
		}
	})
	p.Recover(in)

	assert.Contains(t, note, "accepted=")
	assert.Contains(t, note, "markdown_enumeration=1")
}

func TestRecover_ConfidenceOrdering(t *testing.T) {
	p := New(DefaultOptions(), nil)

	clean := p.Recover(`{"title":"A","questions":[{"text":"Is this a clean parse?"}]}`)
	reconstructed := p.Recover("1) Is this question recovered by patterns only?")
	empty := p.Recover("")

	assert.Greater(t, clean.ConfidenceScore, reconstructed.ConfidenceScore)
	assert.Greater(t, reconstructed.ConfidenceScore, empty.ConfidenceScore)
}

func TestRecover_ConcurrentCallers(t *testing.T) {
	p := New(DefaultOptions(), nil)
	inputs := []string{
		`{"title":"One","questions":[{"text":"First question text?"}]}`,
		"1) What is your favorite color?",
		"",
		"garbage {]} garbage",
	}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 20; j++ {
				s := p.Recover(inputs[(i+j)%len(inputs)])
				assert.NotNil(t, s)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	close(done)
}
