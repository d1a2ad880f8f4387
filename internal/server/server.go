// Package server exposes the build dispatcher over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/keyforge/dispatch/internal/config"
	"github.com/keyforge/dispatch/internal/dispatch"
	"github.com/keyforge/dispatch/internal/jobs"
	"github.com/keyforge/dispatch/internal/layoutrepo"
	"github.com/keyforge/dispatch/internal/output"
	"github.com/keyforge/dispatch/internal/versions"
)

const defaultShutdownTimeout = 10 * time.Second

// Builder runs build requests.
type Builder interface {
	Build(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
}

// JobCounter reports the size of the job table.
type JobCounter interface {
	Len() int
	Counts() map[jobs.State]int
}

// Config configures a Server.
type Config struct {
	// Addr is the TCP listen address, e.g. "localhost:3000".
	Addr string
	// MaxBodyBytes defaults to config.DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// BuildsRoute is the URL prefix artifacts are served under.
	BuildsRoute string
	// OutputDir holds the artifacts. Empty disables the builds route.
	OutputDir string
	// ShutdownTimeout bounds graceful shutdown. Defaults to 10s. Requests
	// still running after it are cut off; their builds keep running.
	ShutdownTimeout time.Duration
}

// Server is the HTTP front end of the dispatcher.
type Server struct {
	cfg      Config
	builder  Builder
	jobs     JobCounter
	resolver versions.Resolver
	layouts  *layoutrepo.Repo

	ready chan struct{}
	addr  net.Addr
}

// New returns a Server. jobs and layouts may be nil.
func New(cfg Config, builder Builder, jobs JobCounter, resolver versions.Resolver, layouts *layoutrepo.Repo) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = config.DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	cfg.BuildsRoute = "/" + strings.Trim(cfg.BuildsRoute, "/")
	return &Server{
		cfg:      cfg,
		builder:  builder,
		jobs:     jobs,
		resolver: resolver,
		layouts:  layouts,
		ready:    make(chan struct{}),
	}
}

// Handler returns the routed handler with request ids attached.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{$}", s.handleBuild)
	mux.HandleFunc("GET /versions", s.handleVersions)
	mux.HandleFunc("GET /layouts/{file}", s.handleLayout)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.cfg.OutputDir != "" && s.cfg.BuildsRoute != "/" {
		prefix := s.cfg.BuildsRoute + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(prefix, http.FileServer(http.Dir(s.cfg.OutputDir))))
	}
	return withRequestID(mux)
}

// Ready is closed once the listener is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address. Valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Serve listens on the configured address until ctx is done, then shuts
// down gracefully. In-flight build requests are allowed to finish within
// the shutdown timeout; connections still open after it are closed and
// Serve returns nil.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	s.addr = listener.Addr()
	close(s.ready)

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	output.Info("build dispatcher listening", "address", s.addr.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		output.Info("http server shutting down")
	case err := <-serveDone:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		output.Warn("requests still running after shutdown timeout, closing connections", "timeout", s.cfg.ShutdownTimeout)
		_ = srv.Close()
	}
	output.Info("http server stopped")
	return nil
}

type loggerKey struct{}

// requestLogger returns the logger attached by withRequestID.
func requestLogger(r *http.Request) *log.Logger {
	if l, ok := r.Context().Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return output.Logger()
}
