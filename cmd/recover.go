package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/canvass-labs/survey-cli/internal/model"
	"github.com/canvass-labs/survey-cli/internal/recovery"
	"github.com/canvass-labs/survey-cli/internal/store"
)

var (
	recoverPretty bool
	recoverSave   bool
)

var recoverCmd = &cobra.Command{
	Use:   "recover [file...]",
	Short: "Recover survey structures from raw generator output",
	Long:  "Reads raw LLM output from the given files (or stdin when none are given) and prints a recovered survey as JSON per input. Never fails on malformed content.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		opts, err := recoveryOptions()
		if err != nil {
			return err
		}

		var st store.Store
		if recoverSave {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}

		if len(args) == 0 {
			raw, err := io.ReadAll(os.Stdin)
			if err != nil {
				return eris.Wrap(err, "read stdin")
			}
			out, err := recoverOne(ctx, opts, st, "stdin", raw)
			if err != nil {
				return err
			}
			return printJSON(os.Stdout, out, recoverPretty)
		}

		// Recover each file concurrently; write results in input order.
		outputs := make([]*recoverOutput, len(args))
		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for idx, path := range args {
			g.Go(func() error {
				raw, err := os.ReadFile(path)
				if err != nil {
					return eris.Wrapf(err, "read %s", path)
				}
				out, err := recoverOne(gCtx, opts, st, path, raw)
				if err != nil {
					return err
				}
				outputs[idx] = out
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, out := range outputs {
			if err := printJSON(os.Stdout, out, recoverPretty); err != nil {
				return err
			}
		}
		return nil
	},
}

// recoverOutput is the JSON printed per input.
type recoverOutput struct {
	Input    string                  `json:"input"`
	Survey   *model.Survey           `json:"survey"`
	Strategy string                  `json:"strategy"`
	Attempts []model.RecoveryAttempt `json:"attempts"`
	RunID    string                  `json:"run_id,omitempty"`
}

func recoverOne(ctx context.Context, opts recovery.Options, st store.Store, name string, raw []byte) (*recoverOutput, error) {
	start := time.Now()

	var attempts []model.RecoveryAttempt
	pipe := recovery.New(opts, func(a model.RecoveryAttempt) {
		attempts = append(attempts, a)
	})
	survey := pipe.Recover(string(raw))

	out := &recoverOutput{
		Input:  name,
		Survey: survey,
	}
	for _, a := range attempts {
		if a.OK {
			out.Strategy = a.Strategy
			break
		}
	}
	out.Attempts = attempts

	zap.L().Info("recovered survey",
		zap.String("input", name),
		zap.String("strategy", out.Strategy),
		zap.Float64("confidence", survey.ConfidenceScore),
		zap.Int("questions", survey.QuestionCount()),
	)

	if st != nil {
		sum := sha256.Sum256(raw)
		run := &model.Run{
			Source:      model.RunSourceRecover,
			InputSHA256: hex.EncodeToString(sum[:]),
			InputBytes:  len(raw),
			Strategy:    out.Strategy,
			Confidence:  survey.ConfidenceScore,
			Questions:   survey.QuestionCount(),
			Survey:      survey,
			DurationMS:  time.Since(start).Milliseconds(),
		}
		if err := st.CreateRun(ctx, run); err != nil {
			return nil, eris.Wrap(err, "save run")
		}
		out.RunID = run.ID
	}

	return out, nil
}

func printJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func init() {
	recoverCmd.Flags().BoolVar(&recoverPretty, "pretty", false, "indent JSON output")
	recoverCmd.Flags().BoolVar(&recoverSave, "save", false, "persist the run to the configured store")
	rootCmd.AddCommand(recoverCmd)
}
