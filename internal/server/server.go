// Package server exposes a diagram editing session over HTTP.
//
// Routes:
//
//	GET    /health              heartbeat
//	GET    /api/session         source and render state
//	PUT    /api/source          replace the source and render it
//	POST   /api/generate        generate source from a prompt and render it
//	GET    /api/preview.svg     current artifact
//	GET    /api/export          current artifact as a diagram.svg download
//	GET    /api/settings/key    masked API key
//	PUT    /api/settings/key    save the API key
//	DELETE /api/settings/key    clear the API key
//	GET    /api/history         recent generations
//	GET    /api/ws              websocket stream of render states
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/diagrammer/pkg/session"
)

const (
	maxBodyBytes    = 1 << 20
	shutdownTimeout = 10 * time.Second
)

// Server serves one editing session.
type Server struct {
	session        *session.Session
	logger         *log.Logger
	originPatterns []string
	router         chi.Router
}

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger used for request and websocket logs.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOriginPatterns allows cross-origin websocket clients matching patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(s *Server) { s.originPatterns = patterns }
}

// New creates a Server for sess.
func New(sess *session.Session, opts ...Option) *Server {
	s := &Server{
		session: sess,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.handleSession)
		r.Put("/source", s.handleSetSource)
		r.Post("/generate", s.handleGenerate)
		r.Get("/preview.svg", s.handlePreview)
		r.Get("/export", s.handleExport)

		r.Get("/settings/key", s.handleGetKey)
		r.Put("/settings/key", s.handleSaveKey)
		r.Delete("/settings/key", s.handleClearKey)

		r.Get("/history", s.handleHistory)
		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// requestLogger logs one line per request through the charm logger.
func requestLogger(l *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			l.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
