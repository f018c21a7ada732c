// Package api exposes the HTTP surface: health/metrics endpoints, the
// configuration query, and the websocket control channel.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mailsift/mailsift/internal/events"
)

// Controller is the control surface a websocket session drives. The job
// orchestrator satisfies it.
type Controller interface {
	Start(urls []string, displayMode bool) error
	Pause() error
	Resume() error
	Stop() error
	Close()
}

// ControllerFactory builds a Controller whose events flow to the given sink.
// One controller is created per websocket session.
type ControllerFactory func(emitter events.Sink) Controller

// Server wires HTTP handlers to the orchestrator factory.
type Server struct {
	router        chi.Router
	newController ControllerFactory
	fakePrefixes  []string
	registry      *prometheus.Registry
	logger        *zap.Logger
}

// NewServer constructs a Server with middleware and routes.
func NewServer(
	newController ControllerFactory,
	fakePrefixes []string,
	registry *prometheus.Registry,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		newController: newController,
		fakePrefixes:  fakePrefixes,
		registry:      registry,
		logger:        logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))

	// The websocket route hijacks the connection, so the timeout wrapper
	// applies only to the plain HTTP routes.
	r.Group(func(r chi.Router) {
		r.Use(timeoutMiddleware(30 * time.Second))
		r.Get("/healthz", s.healthz)
		r.Get("/readyz", s.readyz)
		r.Get("/api/config", s.getConfig)
		if registry != nil {
			r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
				registry, promhttp.HandlerOpts{},
			))
		}
	})
	r.Get("/ws", s.handleWS)

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// getConfig serves the fake-prefix blocklist; clients query it once before
// starting a job.
func (s *Server) getConfig(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"fake_email_prefixes": s.fakePrefixes,
	})
}
