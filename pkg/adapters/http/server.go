// Package http serves persisted run records over a read-only JSON/CSV API, together
// with prometheus metrics and a server-sent event stream of live runs.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/bngenvs"
	"github.com/aretw0/bngenvs/internal/logging"
	"github.com/aretw0/bngenvs/pkg/domain"
	"github.com/aretw0/bngenvs/pkg/ports"
	"github.com/aretw0/bngenvs/pkg/results"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the handler dependencies.
type Server struct {
	Index    ports.RunIndex
	Streams  *StreamManager
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithGatherer serves g on /metrics. Without it /metrics serves the default registry.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithStreams shares sm, typically one whose Hooks feed running environments.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) { s.Streams = sm }
}

// NewHandler creates the HTTP handler over idx.
func NewHandler(idx ports.RunIndex, opts ...Option) http.Handler {
	s := &Server{
		Index:    idx,
		gatherer: prometheus.DefaultGatherer,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/runs", s.ListRuns)
	r.Route("/runs/{id}", func(r chi.Router) {
		r.Get("/", s.GetRun)
		r.Get("/results", s.GetResults)
		r.Get("/scalars", s.GetScalars)
		r.Get("/timeseries", s.GetTimeSeries)
		r.Get("/rawlogs", s.GetRawLogs)
	})
	r.Get("/events", s.SubscribeEvents)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{
		"app":                    "bngenvs-http",
		"version":                strings.TrimSpace(bngenvs.Version),
		"simulator_data_version": bngenvs.SimulatorDataVersion,
	})
}

// ListRuns handles GET /runs, optionally filtered by ?env=.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Index.List(r.Context(), r.URL.Query().Get("env"))
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("list runs failed", "err", err)
		return
	}
	if entries == nil {
		entries = []domain.RunEntry{}
	}
	s.writeJSON(w, entries)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	entry, ok := s.entry(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, entry)
}

// GetResults handles GET /runs/{id}/results: the saved documents minus the history.
func (s *Server) GetResults(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, map[string]any{
		"run_id":     rec.RunID,
		"env":        rec.EnvName,
		"params":     rec.Params,
		"config":     rec.Config,
		"bng_config": rec.BNGConfig,
		"results":    rec.Results,
		"outcome":    rec.Outcome,
	})
}

// GetScalars handles GET /runs/{id}/scalars.
func (s *Server) GetScalars(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	scalars, err := rec.ScalarMap()
	if err != nil {
		http.Error(w, fmt.Sprintf("Scalars error: %v", err), http.StatusInternalServerError)
		s.logger.Error("scalars failed", "run_id", rec.RunID, "err", err)
		return
	}
	s.writeJSON(w, scalars)
}

// GetTimeSeries handles GET /runs/{id}/timeseries as CSV.
func (s *Server) GetTimeSeries(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	table, err := rec.TimeSeries()
	if err != nil {
		http.Error(w, fmt.Sprintf("Time series error: %v", err), http.StatusInternalServerError)
		s.logger.Error("time series failed", "run_id", rec.RunID, "err", err)
		return
	}
	s.writeCSV(w, rec.RunID+"_timeseries.csv", table)
}

// GetRawLogs handles GET /runs/{id}/rawlogs as CSV. Runs without raw logs are 404.
func (s *Server) GetRawLogs(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	table, found, err := rec.RawLogs()
	if err != nil {
		http.Error(w, fmt.Sprintf("Raw logs error: %v", err), http.StatusInternalServerError)
		s.logger.Error("raw logs failed", "run_id", rec.RunID, "err", err)
		return
	}
	if !found {
		http.Error(w, "Run has no raw logs", http.StatusNotFound)
		return
	}
	s.writeCSV(w, rec.RunID+"_rawlogs.csv", table)
}

func (s *Server) entry(w http.ResponseWriter, r *http.Request) (domain.RunEntry, bool) {
	id := chi.URLParam(r, "id")
	entry, err := s.Index.Get(r.Context(), id)
	if errors.Is(err, domain.ErrRecordNotFound) {
		http.Error(w, fmt.Sprintf("Run %q not found", id), http.StatusNotFound)
		return entry, false
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Get error: %v", err), http.StatusInternalServerError)
		s.logger.Error("get run failed", "run_id", id, "err", err)
		return entry, false
	}
	return entry, true
}

func (s *Server) record(w http.ResponseWriter, r *http.Request) (*results.Record, bool) {
	entry, ok := s.entry(w, r)
	if !ok {
		return nil, false
	}
	rec, err := results.Load(entry.Path, entry.Env, results.WithLogger(s.logger))
	if errors.Is(err, domain.ErrIncompleteRecord) {
		http.Error(w, fmt.Sprintf("Run %q is incomplete", entry.RunID), http.StatusConflict)
		return nil, false
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("load run failed", "run_id", entry.RunID, "path", entry.Path, "err", err)
		return nil, false
	}
	return rec, true
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeCSV(w http.ResponseWriter, name string, t *results.Table) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	if err := t.WriteCSV(w); err != nil {
		s.logger.Error("csv encode failed", "err", err)
	}
}
