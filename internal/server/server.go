package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haskel/collswitch/internal/allocation"
	"github.com/haskel/collswitch/internal/config"
	"github.com/haskel/collswitch/internal/decision/scheduler"
	"github.com/haskel/collswitch/internal/server/middleware"
)

// Engine is the view of the allocation factory the server exposes.
type Engine interface {
	Contexts() []allocation.ContextStats
	Scheduler() *scheduler.Manager
}

type Server struct {
	httpServer *http.Server
	engine     Engine
	gatherer   prometheus.Gatherer
	config     *config.Config
	logger     *slog.Logger
	version    string
}

// New creates a server. A nil gatherer disables /metrics.
func New(cfg *config.Config, engine Engine, gatherer prometheus.Gatherer, logger *slog.Logger, version string) *Server {
	s := &Server{
		engine:   engine,
		gatherer: gatherer,
		config:   cfg,
		logger:   logger,
		version:  version,
	}

	mux := s.setupRoutes()

	handler := middleware.Chain(
		mux,
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.SecurityHeaders(),
		middleware.RateLimit(&middleware.RateLimitConfig{
			Enabled:           cfg.Server.RateLimit.Enabled,
			RequestsPerSecond: cfg.Server.RateLimit.RequestsPerSecond,
			Burst:             cfg.Server.RateLimit.Burst,
		}),
		middleware.MaxBody(0),
	)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.logger.Info("server starting",
		"addr", s.httpServer.Addr,
	)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the root handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
