package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/canvass-labs/survey-cli/internal/recovery"
	"github.com/canvass-labs/survey-cli/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.Path
		if path == "" {
			path = "survey.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// recoveryOptions maps the loaded config onto pipeline options.
func recoveryOptions() (recovery.Options, error) {
	rc := cfg.Recovery
	opts := recovery.Options{
		MinQuestionLen:       rc.MinQuestionLen,
		MaxQuestionLen:       rc.MaxQuestionLen,
		SimilarityThreshold:  rc.SimilarityThreshold,
		FastPathBytes:        rc.FastPathBytes,
		PatternBudget:        rc.PatternBudget(),
		MaxBraceCandidates:   rc.MaxBraceCandidates,
		MaxFallbackQuestions: rc.MaxFallbackQuestions,
		SingleSectionMax:     rc.SingleSectionMax,
		MinSectionSize:       rc.MinSectionSize,
	}
	if rc.TopicsFile != "" {
		topics, err := recovery.LoadTopics(rc.TopicsFile)
		if err != nil {
			return opts, eris.Wrap(err, "load topics file")
		}
		opts.Topics = topics
	}
	return opts, nil
}
