// Package api is the thin HTTP shell over the analysis engine. It carries no
// report logic: handlers validate input, call the service, and frame the
// result.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/usrn-labs/streetwise/internal/model"
)

// Runner executes one analysis. Satisfied by analysis.Service.
type Runner interface {
	Run(ctx context.Context, usrn string, analysis model.AnalysisType, collections []string) (*model.ExternalReport, error)
}

// Summarizer turns a report into prose. Optional; endpoints reject
// ?summarize=true when none is configured.
type Summarizer interface {
	Summarize(ctx context.Context, r *model.ExternalReport) (string, error)
}

// Server is the HTTP surface.
type Server struct {
	runner     Runner
	summarizer Summarizer
}

// NewServer creates the Server. summarizer may be nil.
func NewServer(runner Runner, summarizer Summarizer) *Server {
	return &Server{runner: runner, summarizer: summarizer}
}

// Router builds the chi routing tree.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/street/{usrn}", s.handleAnalysis(model.AnalysisStreet))
	r.Get("/v1/land-use/{usrn}", s.handleAnalysis(model.AnalysisLandUse))
	r.Get("/v1/collaborative/{usrn}", s.handleAnalysis(model.AnalysisCollaborative))
	return r
}

// ListenAndServe runs the server until ctx is cancelled, then drains.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	zap.L().Info("http server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// requestID tags every request with a uuid for log correlation. The id never
// enters report content, which stays byte-deterministic.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalysis(analysis model.AnalysisType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		usrn := chi.URLParam(r, "usrn")

		var collections []string
		if raw := r.URL.Query().Get("collections"); raw != "" {
			collections = strings.Split(raw, ",")
		}

		out, err := s.runner.Run(r.Context(), usrn, analysis, collections)
		if err != nil {
			s.writeError(w, r, usrn, err)
			return
		}

		if r.URL.Query().Get("summarize") == "true" {
			s.writeSummarized(w, r, out)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// summarizedResponse frames a report together with its prose summary.
type summarizedResponse struct {
	Report  *model.ExternalReport `json:"report"`
	Summary string                `json:"summary"`
}

func (s *Server) writeSummarized(w http.ResponseWriter, r *http.Request, out *model.ExternalReport) {
	if s.summarizer == nil {
		writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "summarisation is not configured"})
		return
	}
	text, err := s.summarizer.Summarize(r.Context(), out)
	if err != nil {
		s.writeError(w, r, out.USRN, err)
		return
	}
	writeJSON(w, http.StatusOK, summarizedResponse{Report: out, Summary: text})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, usrn string, err error) {
	status := http.StatusBadGateway
	switch {
	case model.IsValidation(err):
		status = http.StatusBadRequest
	case model.IsResolution(err):
		status = http.StatusNotFound
	}

	zap.L().Warn("request failed",
		zap.Any("request_id", r.Context().Value(requestIDKey)),
		zap.String("usrn", usrn),
		zap.Int("status", status),
		zap.Error(err),
	)
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("write response", zap.Error(err))
	}
}
