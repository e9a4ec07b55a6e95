package generate

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/canvass-labs/survey-cli/pkg/anthropic"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:         "msg_gen",
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
		Usage:      anthropic.TokenUsage{InputTokens: 200, OutputTokens: 150},
	}
}

func newTestGenerator(mc *mockClient) *Generator {
	return New(mc, Options{
		Model:             "claude-sonnet-4-5-20250929",
		RequestsPerMinute: 6000, // don't slow the tests down
		MaxConcurrent:     4,
	})
}

func TestGenerate_CleanJSON(t *testing.T) {
	mc := new(mockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		`{"title":"Coffee Habits","sections":[{"id":1,"title":"Basics","questions":[`+
			`{"id":"q1","text":"How many cups of coffee do you drink per day?","type":"text"}]}]}`,
	), nil)

	g := newTestGenerator(mc)
	res, err := g.Generate(context.Background(), Request{Topic: "coffee habits"})
	require.NoError(t, err)

	assert.Equal(t, "Coffee Habits", res.Survey.Title)
	assert.Equal(t, 1, res.Survey.QuestionCount())
	assert.Equal(t, "direct_parse", res.Strategy)
	assert.InDelta(t, 0.9, res.Survey.ConfidenceScore, 0.001)
	assert.Equal(t, int64(200), res.Usage.InputTokens)
	mc.AssertExpectations(t)
}

func TestGenerate_MarkdownResponseStillRecovers(t *testing.T) {
	mc := new(mockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		"Here is your survey:\n\n1) How satisfied are you with our service?\n2) What would you improve about the product?\n",
	), nil)

	g := newTestGenerator(mc)
	res, err := g.Generate(context.Background(), Request{Topic: "customer satisfaction"})
	require.NoError(t, err)

	// Recovery never fails; the malformed response just lands on a weaker strategy.
	require.NotNil(t, res.Survey)
	assert.GreaterOrEqual(t, res.Survey.QuestionCount(), 2)
	assert.NotEqual(t, "direct_parse", res.Strategy)
}

func TestGenerate_EmptyTopic(t *testing.T) {
	g := newTestGenerator(new(mockClient))
	_, err := g.Generate(context.Background(), Request{Topic: "  "})
	assert.Error(t, err)
}

func TestGenerate_APIError(t *testing.T) {
	mc := new(mockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, eris.New("anthropic: overloaded"))

	g := newTestGenerator(mc)
	_, err := g.Generate(context.Background(), Request{Topic: "anything"})
	assert.Error(t, err)
}

func TestGenerate_RecordsAttempts(t *testing.T) {
	mc := new(mockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		`{"title":"T","sections":[{"id":1,"questions":[{"id":"q1","text":"Is this a valid question?"}]}]}`,
	), nil)

	g := newTestGenerator(mc)
	res, err := g.Generate(context.Background(), Request{Topic: "anything"})
	require.NoError(t, err)

	require.NotEmpty(t, res.Attempts)
	assert.Equal(t, "direct_parse", res.Attempts[0].Strategy)
	assert.True(t, res.Attempts[0].OK)
}

func TestGenerateBatch(t *testing.T) {
	mc := new(mockClient)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse(
		`{"title":"Batch","sections":[{"id":1,"questions":[{"id":"q1","text":"Do you like surveys about surveys?"}]}]}`,
	), nil)

	g := newTestGenerator(mc)
	reqs := []Request{
		{Topic: "first topic"},
		{Topic: "second topic"},
		{Topic: "third topic"},
	}
	results, err := g.GenerateBatch(context.Background(), reqs)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for _, r := range results {
		require.NotNil(t, r)
		assert.Equal(t, "Batch", r.Survey.Title)
	}
}

func TestGenerateBatch_PartialFailure(t *testing.T) {
	mc := new(mockClient)
	ok := textResponse(`{"title":"OK","sections":[{"id":1,"questions":[{"id":"q1","text":"Is this the surviving request?"}]}]}`)
	mc.On("CreateMessage", mock.Anything, mock.MatchedBy(func(req anthropic.MessageRequest) bool {
		return len(req.Messages) > 0 && req.Messages[0].Content == "Create a survey about: good topic\n"
	})).Return(ok, nil)
	mc.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, eris.New("anthropic: overloaded"))

	g := newTestGenerator(mc)
	results, err := g.GenerateBatch(context.Background(), []Request{
		{Topic: "good topic"},
		{Topic: "bad topic"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.NotNil(t, results[0])
	assert.Equal(t, "OK", results[0].Survey.Title)
	assert.Nil(t, results[1])
}

func TestBuildPrompt(t *testing.T) {
	p := buildPrompt(Request{Topic: "remote work", Audience: "engineers", QuestionCount: 12})
	assert.Contains(t, p, "remote work")
	assert.Contains(t, p, "engineers")
	assert.Contains(t, p, "12")

	p = buildPrompt(Request{Topic: "remote work"})
	assert.NotContains(t, p, "audience")
	assert.NotContains(t, p, "roughly")
}
