// Package server exposes the recovery pipeline over HTTP.
package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/canvass-labs/survey-cli/internal/generate"
	"github.com/canvass-labs/survey-cli/internal/model"
	"github.com/canvass-labs/survey-cli/internal/monitoring"
	"github.com/canvass-labs/survey-cli/internal/recovery"
	"github.com/canvass-labs/survey-cli/internal/store"
)

// maxRecoverBody bounds how much raw generator output a single request may
// carry. Larger inputs would blow the pattern matchers' budget anyway.
const maxRecoverBody = 4 << 20

// Server wires the recovery pipeline, generator, and run store behind a
// chi router. Generator and store may be nil; the matching routes then
// return 503.
type Server struct {
	recoveryOpts recovery.Options
	generator    *generate.Generator
	store        store.Store
	collector    *monitoring.Collector
}

// New creates a Server.
func New(opts recovery.Options, gen *generate.Generator, st store.Store) *Server {
	s := &Server{
		recoveryOpts: opts,
		generator:    gen,
		store:        st,
	}
	if st != nil {
		s.collector = monitoring.NewCollector(st)
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/recover", s.handleRecover)
		r.Post("/generate", s.handleGenerate)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/metrics", s.handleMetrics)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// recoverResponse is the wire shape for a recovery result.
type recoverResponse struct {
	Survey   *model.Survey           `json:"survey"`
	Strategy string                  `json:"strategy"`
	Attempts []model.RecoveryAttempt `json:"attempts"`
	RunID    string                  `json:"run_id,omitempty"`
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxRecoverBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "empty body")
		return
	}

	start := time.Now()
	var attempts []model.RecoveryAttempt
	pipe := recovery.New(s.recoveryOpts, func(a model.RecoveryAttempt) {
		attempts = append(attempts, a)
	})
	survey := pipe.Recover(string(raw))

	resp := recoverResponse{
		Survey:   survey,
		Strategy: winning(attempts),
		Attempts: attempts,
	}
	resp.RunID = s.persistRun(r, model.RunSourceAPI, raw, survey, resp.Strategy, time.Since(start))

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		writeError(w, http.StatusServiceUnavailable, "generation is not configured")
		return
	}

	var req generate.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	res, err := s.generator.Generate(r.Context(), req)
	if err != nil {
		zap.L().Error("api generation failed", zap.String("topic", req.Topic), zap.Error(err))
		writeError(w, http.StatusBadGateway, "generation failed")
		return
	}

	resp := recoverResponse{
		Survey:   res.Survey,
		Strategy: res.Strategy,
		Attempts: res.Attempts,
	}
	resp.RunID = s.persistRun(r, model.RunSourceGenerate, []byte{}, res.Survey, res.Strategy, res.Duration)

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run store is not configured")
		return
	}

	filter := store.RunFilter{
		Strategy: r.URL.Query().Get("strategy"),
		Source:   model.RunSource(r.URL.Query().Get("source")),
	}
	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "list runs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run store is not configured")
		return
	}

	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.collector == nil {
		writeError(w, http.StatusServiceUnavailable, "run store is not configured")
		return
	}

	snap, err := s.collector.Collect(r.Context(), 24)
	if err != nil {
		zap.L().Error("collect metrics failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "collect metrics")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// persistRun saves the run if a store is configured. Persistence failures are
// logged, not surfaced; losing the audit row should not fail the request.
func (s *Server) persistRun(r *http.Request, source model.RunSource, raw []byte, survey *model.Survey, strategy string, dur time.Duration) string {
	if s.store == nil {
		return ""
	}

	sum := sha256.Sum256(raw)
	run := &model.Run{
		Source:      source,
		InputSHA256: hex.EncodeToString(sum[:]),
		InputBytes:  len(raw),
		Strategy:    strategy,
		Confidence:  survey.ConfidenceScore,
		Questions:   survey.QuestionCount(),
		Survey:      survey,
		DurationMS:  dur.Milliseconds(),
	}
	if err := s.store.CreateRun(r.Context(), run); err != nil {
		zap.L().Warn("persist run failed", zap.Error(err))
		return ""
	}
	return run.ID
}

func winning(attempts []model.RecoveryAttempt) string {
	for _, a := range attempts {
		if a.OK {
			return a.Strategy
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
