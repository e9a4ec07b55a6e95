package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/canvass-labs/survey-cli/internal/generate"
	"github.com/canvass-labs/survey-cli/internal/monitoring"
	"github.com/canvass-labs/survey-cli/internal/server"
	"github.com/canvass-labs/survey-cli/internal/store"
	"github.com/canvass-labs/survey-cli/pkg/anthropic"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP recovery API",
	Long:  "Serves recovery, generation, and run-history endpoints. Generation endpoints require an Anthropic API key; everything else works without one.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		opts, err := recoveryOptions()
		if err != nil {
			return err
		}

		var st store.Store
		st, err = initStore(ctx)
		if err != nil {
			zap.L().Warn("store unavailable, runs will not be persisted", zap.Error(err))
			st = nil
		} else {
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return eris.Wrap(err, "migrate store")
			}
		}

		var gen *generate.Generator
		if cfg.Anthropic.Key != "" {
			gen = generate.New(anthropic.NewClient(cfg.Anthropic.Key), generate.Options{
				Model:             cfg.Anthropic.Model,
				MaxTokens:         int64(cfg.Anthropic.MaxTokens),
				RequestsPerMinute: cfg.Generate.RequestsPerMinute,
				MaxConcurrent:     cfg.Generate.MaxConcurrent,
				Recovery:          opts,
			})
		}

		if st != nil && cfg.Monitoring.WebhookURL != "" {
			checker := monitoring.NewChecker(
				monitoring.NewCollector(st),
				monitoring.NewAlerter(cfg.Monitoring),
				cfg.Monitoring,
			)
			go checker.Run(ctx)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.New(opts, gen, st).Router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
