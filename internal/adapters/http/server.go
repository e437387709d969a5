// Package http exposes a read-only inspection surface over the plan library
// and live sessions, plus Prometheus metrics.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Server serves the inspection API. All endpoints are read-only; sessions
// are mutated exclusively by the host turn loop.
type Server struct {
	library  ports.PlanLibrary
	store    ports.StateStore
	logger   *slog.Logger
	gatherer prometheus.Gatherer

	router chi.Router
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithGatherer sets the Prometheus gatherer backing /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewServer builds the inspection server over a library and a state store.
func NewServer(library ports.PlanLibrary, store ports.StateStore, opts ...Option) *Server {
	s := &Server{
		library:  library,
		store:    store,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", s.handleHealth)
	r.Get("/plans", s.handleListPlans)
	r.Get("/plans/{planID}", s.handleGetPlan)
	r.Get("/sessions", s.handleListSessions)
	r.Get("/sessions/{sessionID}", s.handleGetSession)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// planSummary is the list-view projection of a plan.
type planSummary struct {
	ID               string   `json:"id"`
	Name             string   `json:"name,omitempty"`
	Domains          []string `json:"domains,omitempty"`
	Triggers         []string `json:"triggers,omitempty"`
	TriggerThreshold int      `json:"trigger_threshold"`
	StaleAfterTurns  int      `json:"stale_after_turns"`
	Tasks            int      `json:"tasks"`
}

func summarize(p *domain.Plan) planSummary {
	return planSummary{
		ID:               p.ID,
		Name:             p.Name,
		Domains:          p.Domains,
		Triggers:         p.Triggers,
		TriggerThreshold: p.TriggerThreshold,
		StaleAfterTurns:  p.StaleAfterTurns,
		Tasks:            p.Graph.TaskCount(),
	}
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans := s.library.Plans()
	out := make([]planSummary, 0, len(plans))
	for _, p := range plans {
		out = append(out, summarize(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")
	plan, ok := s.library.Get(planID)
	if !ok {
		writeError(w, http.StatusNotFound, "plan not found")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Warn("listing sessions failed", "err", err)
		writeError(w, http.StatusInternalServerError, "listing sessions failed")
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	t, err := s.store.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		s.logger.Warn("loading session failed", "session", sessionID, "err", err)
		writeError(w, http.StatusInternalServerError, "loading session failed")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
