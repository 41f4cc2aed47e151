// Package http hosts the HTTP transport: server, router, handlers and
// middleware.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dankrut/callisto-server/internal/model"
)

// Server wraps an HTTP server with address and lifecycle methods.
type Server struct {
	server *http.Server
	addr   string
}

// NewServer creates a Server with given handler and address.
func NewServer(handler http.Handler, addr string) *Server {
	return &Server{
		server: &http.Server{Handler: handler},
		addr:   addr,
	}
}

// Start starts serving on the configured address using the provided security layer.
func (s *Server) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.addr
}

var _ model.Server = (*Server)(nil)
