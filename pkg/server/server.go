// Package server provides the HTTP endpoint the monitor exposes for
// scraping: Prometheus metrics and channel health.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// Server timeouts.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 5 * time.Second
)

// Server serves a handler until its context is cancelled, then shuts down
// gracefully.
type Server struct {
	addr    string
	handler http.Handler
	logger  *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	listener   net.Listener
	ready      chan struct{}
}

// New creates a server for handler on addr ("host:port"; port 0 picks a
// free port). The handler is wrapped with request logging and panic
// recovery.
func New(addr string, handler http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:    addr,
		handler: RecoveryMiddleware(logger)(LoggingMiddleware(logger)(handler)),
		logger:  logger,
		ready:   make(chan struct{}),
	}
}

// Start listens and serves until ctx is cancelled. It returns nil after a
// clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.httpServer != nil {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}
	srv := s.httpServer
	s.mu.Unlock()
	close(s.ready)

	s.logger.Info("serving metrics", "address", ln.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.shutdown(srv)
	case err, ok := <-errChan:
		if ok {
			return err
		}
		return nil
	}
}

func (s *Server) shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("metrics server stopped")
	return nil
}

// Addr blocks until the server is listening and returns its address.
// It returns "" if ctx ends first.
func (s *Server) Addr(ctx context.Context) string {
	select {
	case <-s.ready:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.listener.Addr().String()
	case <-ctx.Done():
		return ""
	}
}
