package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"docuparse-client/internal/usecase"
)

// Server is the operational surface of the orchestrator: health, metrics and
// a read-only view of the active poller. It owns no job endpoints — all job
// state belongs to the remote service.
type Server struct {
	supervisor *usecase.PollSupervisor
	log        *zerolog.Logger
}

func NewServer(supervisor *usecase.PollSupervisor, log *zerolog.Logger) *Server {
	return &Server{supervisor: supervisor, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/v1/pollers", s.handlePollers)

	return r
}

func (s *Server) handlePollers(w http.ResponseWriter, _ *http.Request) {
	type response struct {
		Active []usecase.PollerState `json:"active"`
	}
	resp := response{Active: []usecase.PollerState{}}
	if st, ok := s.supervisor.State(); ok {
		resp.Active = append(resp.Active, st)
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.log.Error().Err(err).Msg("encode poller state")
	}
}
