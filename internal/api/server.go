package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slgirgis/horizonscale/pkg/logger"
)

// Server wraps the HTTP server hosting the forecast API and progress stream.
// ⭐ SSOT: HTTP 타임아웃 설정은 이 파일에서만
//
// WriteTimeout is generous because leaderboard and forecast queries against a
// large run can take a while. Websocket clients hijack the connection on
// upgrade, so these timeouts do not apply to /ws/progress.
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
	port       string
}

// NewServer creates an API server listening on the given port.
func NewServer(port string, log *logger.Logger, router http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + port,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: log.Component("api"),
		port:   port,
	}
}

// Start blocks serving requests until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.logger.WithField("port", s.port).Info("Starting API server")

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server: %w", err)
	}

	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}
