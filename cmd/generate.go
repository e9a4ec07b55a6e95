package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canvass-labs/survey-cli/internal/generate"
	"github.com/canvass-labs/survey-cli/internal/model"
	"github.com/canvass-labs/survey-cli/internal/store"
	"github.com/canvass-labs/survey-cli/pkg/anthropic"
)

var (
	genAudience  string
	genQuestions int
	genPretty    bool
	genSave      bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <topic> [topic...]",
	Short: "Generate surveys from topics via the Anthropic API",
	Long:  "Prompts the model for each topic and recovers the response into a structured survey. Multiple topics are generated concurrently.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("generate"); err != nil {
			return err
		}

		opts, err := recoveryOptions()
		if err != nil {
			return err
		}

		var st store.Store
		if genSave {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}

		gen := generate.New(anthropic.NewClient(cfg.Anthropic.Key), generate.Options{
			Model:             cfg.Anthropic.Model,
			MaxTokens:         int64(cfg.Anthropic.MaxTokens),
			RequestsPerMinute: cfg.Generate.RequestsPerMinute,
			MaxConcurrent:     cfg.Generate.MaxConcurrent,
			Recovery:          opts,
		})

		reqs := make([]generate.Request, len(args))
		for i, topic := range args {
			reqs[i] = generate.Request{
				Topic:         topic,
				Audience:      genAudience,
				QuestionCount: genQuestions,
			}
		}

		results, err := gen.GenerateBatch(ctx, reqs)
		if err != nil {
			return eris.Wrap(err, "generate")
		}

		var failed int
		for i, res := range results {
			if res == nil {
				failed++
				continue
			}
			if st != nil {
				run := &model.Run{
					Source:     model.RunSourceGenerate,
					InputBytes: res.RawBytes,
					Strategy:   res.Strategy,
					Confidence: res.Survey.ConfidenceScore,
					Questions:  res.Survey.QuestionCount(),
					Survey:     res.Survey,
					DurationMS: res.Duration.Milliseconds(),
				}
				if err := st.CreateRun(ctx, run); err != nil {
					zap.L().Warn("save run failed", zap.String("topic", args[i]), zap.Error(err))
				}
			}
			if err := printJSON(os.Stdout, res, genPretty); err != nil {
				return err
			}
		}

		if failed > 0 {
			return eris.Errorf("%d of %d generations failed", failed, len(args))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&genAudience, "audience", "", "target audience for the survey")
	generateCmd.Flags().IntVar(&genQuestions, "questions", 0, "approximate question count to request")
	generateCmd.Flags().BoolVar(&genPretty, "pretty", false, "indent JSON output")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "persist runs to the configured store")
	rootCmd.AddCommand(generateCmd)
}
