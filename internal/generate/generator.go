// Package generate produces surveys by prompting an LLM and recovering the
// response text into a structured Survey, whatever shape the model returns.
package generate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/canvass-labs/survey-cli/internal/model"
	"github.com/canvass-labs/survey-cli/internal/recovery"
	"github.com/canvass-labs/survey-cli/pkg/anthropic"
)

const systemPrompt = `You are a survey designer. Given a topic and target audience, produce a survey as a single JSON object with this shape:

{
  "title": "...",
  "description": "...",
  "sections": [
    {
      "id": 1,
      "title": "...",
      "description": "...",
      "questions": [
        {"id": "q1", "text": "...", "type": "text|multiple_choice|scale|boolean|rating|date", "options": [], "required": false}
      ]
    }
  ]
}

Respond with JSON only. No prose before or after the object.`

// Request describes one survey to generate.
type Request struct {
	Topic         string `json:"topic"`
	Audience      string `json:"audience,omitempty"`
	QuestionCount int    `json:"question_count,omitempty"`
}

// Result pairs a recovered survey with generation metadata.
type Result struct {
	Survey   *model.Survey           `json:"survey"`
	Strategy string                  `json:"strategy"`
	Attempts []model.RecoveryAttempt `json:"attempts,omitempty"`
	Usage    anthropic.TokenUsage    `json:"-"`
	RawBytes int                     `json:"raw_bytes"`
	Duration time.Duration           `json:"-"`
}

// Options configures a Generator.
type Options struct {
	Model             string
	MaxTokens         int64
	RequestsPerMinute int
	MaxConcurrent     int
	Recovery          recovery.Options
}

// Generator turns topics into recovered surveys.
type Generator struct {
	client  anthropic.Client
	limiter *rate.Limiter
	opts    Options
}

// New creates a Generator. The rate limiter smooths request bursts across
// batch generation so a large batch cannot exhaust the API quota.
func New(client anthropic.Client, opts Options) *Generator {
	rpm := opts.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 4
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Recovery.MaxQuestionLen == 0 {
		opts.Recovery = recovery.DefaultOptions()
	}
	return &Generator{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		opts:    opts,
	}
}

// Generate produces one survey. The LLM response is never trusted to be
// valid JSON; it always goes through the recovery pipeline.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if strings.TrimSpace(req.Topic) == "" {
		return nil, eris.New("generate: topic is required")
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "generate: rate limit wait")
	}

	start := time.Now()
	resp, err := g.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     g.opts.Model,
		MaxTokens: g.opts.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(systemPrompt),
		Messages: []anthropic.Message{
			{Role: "user", Content: buildPrompt(req)},
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "generate: create message")
	}
	resp.Usage.LogCost(g.opts.Model, "generate")

	raw := resp.Text()

	var attempts []model.RecoveryAttempt
	pipe := recovery.New(g.opts.Recovery, func(a model.RecoveryAttempt) {
		attempts = append(attempts, a)
	})
	survey := pipe.Recover(raw)

	result := &Result{
		Survey:   survey,
		Strategy: winningStrategy(attempts),
		Attempts: attempts,
		Usage:    resp.Usage,
		RawBytes: len(raw),
		Duration: time.Since(start),
	}

	zap.L().Info("survey generated",
		zap.String("topic", req.Topic),
		zap.String("strategy", result.Strategy),
		zap.Float64("confidence", survey.ConfidenceScore),
		zap.Int("questions", survey.QuestionCount()),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// GenerateBatch runs multiple generations concurrently. Individual failures
// do not fail the batch; failed slots are nil in the returned slice.
func (g *Generator) GenerateBatch(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.opts.MaxConcurrent)

	for idx, req := range reqs {
		eg.Go(func() error {
			res, err := g.Generate(gCtx, req)
			if err != nil {
				zap.L().Warn("batch generation failed",
					zap.Int("index", idx),
					zap.String("topic", req.Topic),
					zap.Error(err),
				)
				return nil // Don't fail the group on individual errors.
			}
			results[idx] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return results, eris.Wrap(err, "generate: batch")
	}
	return results, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a survey about: %s\n", req.Topic)
	if req.Audience != "" {
		fmt.Fprintf(&b, "Target audience: %s\n", req.Audience)
	}
	if req.QuestionCount > 0 {
		fmt.Fprintf(&b, "Aim for roughly %d questions.\n", req.QuestionCount)
	}
	return b.String()
}

func winningStrategy(attempts []model.RecoveryAttempt) string {
	for _, a := range attempts {
		if a.OK {
			return a.Strategy
		}
	}
	return ""
}
