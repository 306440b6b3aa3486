// Package server exposes the synthesis pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz                            liveness and build version
//	POST /v1/programs                        generate a program, returns its ID
//	GET  /v1/programs/{id}                   the G-code text
//	GET  /v1/programs/{id}/preview.{svg,png} a rendering of one page (?page=n)
//
// Programs are kept in the runner's cache; an ID maps to the program's cache
// key and the configuration it was generated with.
package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/scribe/pkg/config"
	"github.com/matzehuels/scribe/pkg/font"
	"github.com/matzehuels/scribe/pkg/pipeline"
)

const (
	// DefaultAddr is the listen address used when Options.Addr is empty.
	DefaultAddr = ":8080"

	// DefaultMaxText limits the text of a single request (in bytes).
	DefaultMaxText = 64 * 1024

	shutdownTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Addr string
	// Config is the base configuration. Requests may override the seed, the
	// date, the speed multiplier and the mistake rate.
	Config config.Config
	// Font is shared by all requests. When nil it is loaded from Config.
	Font    *font.Font
	MaxText int
	Logger  *log.Logger
}

// Server serves the HTTP API.
type Server struct {
	runner *pipeline.Runner
	opts   Options
	log    *log.Logger
	router chi.Router
}

// New creates a server that generates programs with runner.
func New(runner *pipeline.Runner, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.MaxText <= 0 {
		opts.MaxText = DefaultMaxText
	}
	if opts.Logger == nil {
		opts.Logger = runner.Logger
	}
	s := &Server{runner: runner, opts: opts, log: opts.Logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler of the API.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.recoverer)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1/programs", func(r chi.Router) {
		r.Post("/", s.handleCreate)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/preview.{format}", s.handlePreview)
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	return r
}

// Run listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", s.opts.Addr)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errc <- err
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("shutdown failed", "err", err)
	}
	return <-errc
}

// =============================================================================
// Responses
// =============================================================================

type errorResponse struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Type: "error", Code: code, Message: msg})
}
