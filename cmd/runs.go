package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/canvass-labs/survey-cli/internal/model"
	"github.com/canvass-labs/survey-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect recovery run history",
	Long:  "Commands for listing, viewing, and summarizing recovery runs.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recovery runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		source, _ := cmd.Flags().GetString("source")
		strategy, _ := cmd.Flags().GetString("strategy")
		minConf, _ := cmd.Flags().GetFloat64("min-confidence")
		limit, _ := cmd.Flags().GetInt("limit")

		filter := store.RunFilter{
			Source:        model.RunSource(source),
			Strategy:      strategy,
			MinConfidence: minConf,
			Limit:         limit,
		}

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs stats --

var runsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate run statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		since, _ := cmd.Flags().GetDuration("since")
		filter := store.RunFilter{}
		if since > 0 {
			filter.Since = time.Now().Add(-since)
		}
		filter.Limit = 10000 // high limit for stats

		runs, err := st.ListRuns(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "runs stats")
		}

		stats := computeRunStats(runs)
		formatRunStats(os.Stdout, stats)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("source", "", "filter by run source (recover, generate, api)")
	runsListCmd.Flags().String("strategy", "", "filter by winning strategy (direct_parse, balanced_extract, ...)")
	runsListCmd.Flags().Float64("min-confidence", 0, "only show runs at or above this confidence")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsStatsCmd.Flags().Duration("since", 24*time.Hour, "time window for stats (e.g. 24h, 72h, 168h)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsStatsCmd)
	rootCmd.AddCommand(runsCmd)
}

// runStats holds aggregate statistics computed from a set of runs.
type runStats struct {
	Total         int
	ByStrategy    map[string]int
	Fallbacks     int
	AvgConfidence float64
	AvgQuestions  float64
	AvgDurMS      float64
}

// computeRunStats computes aggregate statistics from a list of runs.
func computeRunStats(runs []model.Run) runStats {
	s := runStats{ByStrategy: make(map[string]int)}
	s.Total = len(runs)
	if s.Total == 0 {
		return s
	}

	var confSum, qSum, durSum float64
	for _, r := range runs {
		s.ByStrategy[r.Strategy]++
		if r.Strategy == "minimal_fallback" {
			s.Fallbacks++
		}
		confSum += r.Confidence
		qSum += float64(r.Questions)
		durSum += float64(r.DurationMS)
	}

	n := float64(s.Total)
	s.AvgConfidence = confSum / n
	s.AvgQuestions = qSum / n
	s.AvgDurMS = durSum / n
	return s
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSOURCE\tSTRATEGY\tCONF\tQUESTIONS\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t--------\t----\t---------\t-------")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\t%s\n",
			truncateID(r.ID),
			r.Source,
			r.Strategy,
			r.Confidence,
			r.Questions,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// formatRunStats writes aggregate stats to w.
func formatRunStats(out io.Writer, s runStats) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Total runs:\t%d\n", s.Total)
	for _, strategy := range []string{"direct_parse", "balanced_extract", "progressive_repair", "pattern_reconstruct", "minimal_fallback"} {
		if n := s.ByStrategy[strategy]; n > 0 {
			_, _ = fmt.Fprintf(w, "  %s:\t%d\n", strategy, n)
		}
	}
	if s.Total > 0 {
		_, _ = fmt.Fprintf(w, "Fallback rate:\t%.1f%%\n", float64(s.Fallbacks)/float64(s.Total)*100)
		_, _ = fmt.Fprintf(w, "Avg confidence:\t%.2f\n", s.AvgConfidence)
		_, _ = fmt.Fprintf(w, "Avg questions:\t%.1f\n", s.AvgQuestions)
		_, _ = fmt.Fprintf(w, "Avg duration:\t%.0fms\n", s.AvgDurMS)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
