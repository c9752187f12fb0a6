// Package api serves the daemon's HTTP surface: health, Prometheus metrics
// and read-only views of the trade state and plan journal.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/optdesk/internal/api/handler"
	"github.com/newthinker/optdesk/internal/api/middleware"
	"github.com/newthinker/optdesk/internal/api/response"
	"github.com/newthinker/optdesk/internal/core"
	"github.com/newthinker/optdesk/internal/metrics"
	"github.com/newthinker/optdesk/internal/storage/plan"
	"github.com/newthinker/optdesk/internal/storage/state"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Config holds server configuration.
type Config struct {
	Addr   string
	APIKey string
}

// StatusSource reports daemon loop statistics. *app.App satisfies it.
type StatusSource interface {
	GetStats() map[string]any
}

// Dependencies holds the collaborators behind the API routes. Journal and
// Metrics are optional.
type Dependencies struct {
	Status   StatusSource
	State    state.Store
	Journal  plan.Store
	Metrics  *metrics.Registry
	Location *time.Location
}

// Server is the daemon's HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	mux        *http.ServeMux
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, deps Dependencies, logger *zap.Logger) (*Server, error) {
	if deps.Status == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("api: status source is required"))
	}
	if deps.State == nil {
		return nil, core.WrapError(core.ErrConfigMissing, errors.New("api: state store is required"))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	s := &Server{
		logger: logger,
		mux:    mux,
	}
	s.setupRoutes(cfg, deps)

	var h http.Handler = mux
	if deps.Metrics != nil {
		h = metrics.HTTPMiddleware(deps.Metrics)(h)
	}
	h = metrics.LoggingMiddleware(logger)(h)

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

func (s *Server) setupRoutes(cfg Config, deps Dependencies) {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	if deps.Metrics != nil {
		s.mux.Handle("GET /metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	auth := middleware.APIKeyAuth(cfg.APIKey)
	route := func(pattern string, h http.HandlerFunc) {
		s.mux.Handle(pattern, auth(h))
	}

	route("GET /api/v1/status", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, http.StatusOK, deps.Status.GetStats())
	})

	st := handler.NewStateHandler(deps.State, deps.Location)
	route("GET /api/v1/state", st.List)
	route("GET /api/v1/state/{date}", st.Get)
	route("GET /api/v1/stats", st.Stats)

	if deps.Journal != nil {
		plans := handler.NewPlansHandler(deps.Journal, deps.Location)
		route("GET /api/v1/plans", plans.List)
		route("GET /api/v1/plans/{id}", plans.GetByID)
	} else {
		disabled := func(w http.ResponseWriter, r *http.Request) {
			response.Error(w, http.StatusNotFound,
				core.WrapError(core.ErrNoData, errors.New("plan journal disabled")))
		}
		route("GET /api/v1/plans", disabled)
		route("GET /api/v1/plans/{id}", disabled)
	}
}

// Handler returns the server's root handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until Shutdown. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
