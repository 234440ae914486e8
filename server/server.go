// Package server wires the medtriage HTTP server: it builds the route table
// from configuration and runs the listener until its context ends.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/teilomillet/medtriage/config"
	"github.com/teilomillet/medtriage/server/middleware"
	"github.com/teilomillet/medtriage/server/routing"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Server represents the HTTP server
type Server struct {
	httpServer      *http.Server
	queue           *middleware.QueueMiddleware
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// New builds the router for cfg and a server around it.
func New(cfg *config.Config, deps routing.Dependencies, logger *zap.Logger) (*Server, error) {
	router, err := routing.NewRouter(cfg, deps, logger)
	if err != nil {
		return nil, fmt.Errorf("build router: %w", err)
	}
	s := NewServer(cfg.Server, router, logger)
	s.queue = deps.Queue
	return s, nil
}

// defaultShutdownTimeout applies when the configuration leaves it unset.
const defaultShutdownTimeout = 30 * time.Second

// NewServer creates a new server instance
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *Server {
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}
	return &Server{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Port),
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
			ErrorLog:       zap.NewStdLog(logger),
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Start listens on the configured port and blocks until ctx is done or
// the server fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln. When ctx is done, in-flight requests get up to the
// shutdown timeout to finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.logger.Info("Server started", zap.String("address", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		s.logger.Info("Shutting down server", zap.Duration("timeout", s.shutdownTimeout))
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		if s.queue != nil {
			if err := s.queue.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("error draining request queue: %w", err)
			}
		}
		s.logger.Info("Server stopped")
		return nil
	})

	return g.Wait()
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
