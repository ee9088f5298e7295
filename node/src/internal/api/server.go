package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sajjad-MoBe/TupleSpace/node/src/internal/shared"
)

// Server represents the admin HTTP server
type Server struct {
	http   *http.Server
	logger *shared.Logger
}

// NewServer creates a new admin server instance
func NewServer(addr string, handler http.Handler, logger *shared.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start listens on the configured address and serves until Shutdown
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("admin listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(l)
}

// Serve serves admin requests on l until Shutdown
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("Admin HTTP server listening on %s", l.Addr())
	if err := s.http.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin server: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the admin server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
