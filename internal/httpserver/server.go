// Package httpserver runs the HTTP listener as a lifecycle-managed service.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/readstack/catalog/internal/config"
	"github.com/readstack/catalog/pkg/logger"
)

// Server wraps http.Server so it can register with the system manager and
// participate in ordered startup and shutdown.
type Server struct {
	srv *http.Server
	log *logger.Logger

	mu      sync.Mutex
	ln      net.Listener
	started bool
}

// New builds a server from the listener configuration. Port 0 binds an
// ephemeral port; Addr reports the bound address after Start.
func New(cfg config.ServerConfig, handler http.Handler, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewDefault("httpserver")
	}
	return &Server{
		srv: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      handler,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  120 * time.Second,
		},
		log: log,
	}
}

// Name implements system.Service.
func (s *Server) Name() string { return "http-server" }

// Start binds the listener and serves in the background. Serve errors after
// a clean Shutdown are expected and not reported.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}
	s.ln = ln
	s.started = true

	go func() {
		s.log.WithField("addr", ln.Addr().String()).Info("http server listening")
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("http server stopped unexpectedly")
		}
	}()
	return nil
}

// Stop drains in-flight requests until the context expires.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.mu.Unlock()

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

// Addr returns the bound listener address, or the configured address before
// Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return s.ln.Addr().String()
	}
	return s.srv.Addr
}
