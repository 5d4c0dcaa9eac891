// Package api exposes the ledger as a JSON-over-HTTP command surface.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/balkashynov/trakr/internal/config"
	"github.com/balkashynov/trakr/internal/ledger"
)

const (
	shutdownTimeout = 5 * time.Second
	stopAllTimeout  = 5 * time.Second
)

// Server runs the HTTP surface and closes every open session when it
// shuts down.
type Server struct {
	srv        *http.Server
	ledger     *ledger.Ledger
	log        *slog.Logger
	stopOnExit bool

	// drain budget for in-flight requests before connections are cut
	shutdownTimeout time.Duration
}

// NewServer wires handlers and middleware for l.
func NewServer(cfg config.ServerConfig, l *ledger.Ledger, loc *time.Location, log *slog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr,
			Handler:           NewRouter(l, loc, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:          l,
		log:             log,
		stopOnExit:      cfg.StopOnExit,
		shutdownTimeout: shutdownTimeout,
	}
}

// NewRouter builds the gin engine serving the API over l.
func NewRouter(l *ledger.Ledger, loc *time.Location, log *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(RequestID(), AccessLog(log), Recovery(log))
	r.NoRoute(noRoute)

	NewHandlers(l, loc).Register(r)
	return r
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run listens on the configured address until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then drains in-flight
// requests and, if configured, stops every open session. A failure to stop
// them is returned so the process can exit non-zero.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", "addr", ln.Addr().String())
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		// a client still holding a request open; cut it off
		s.log.Error("shutdown error, closing remaining connections", "error", err)
		_ = s.srv.Close()
	}

	if !s.stopOnExit {
		s.log.Info("server stopped")
		return nil
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), stopAllTimeout)
	defer cancelStop()

	closed, err := s.ledger.StopAllOpenSessions(stopCtx)
	if err != nil {
		s.log.Error("failed to stop open sessions on exit", "error", err)
		return fmt.Errorf("failed to stop open sessions: %w", err)
	}

	s.log.Info("server stopped", "sessions_closed", len(closed))
	return nil
}
