// Package server exposes the interpreter session over HTTP.
package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ayusman/signlink/internal/app"
	"github.com/ayusman/signlink/internal/logging"
	"github.com/ayusman/signlink/internal/server/api"
	"github.com/ayusman/signlink/internal/store"
)

// Config holds the server configuration. Routes are only mounted for the
// collaborators that are set.
type Config struct {
	App       *app.App
	Store     *store.Store
	Gatherer  prometheus.Gatherer
	StaticDir string
	Logger    *slog.Logger
}

// Server is the HTTP front end.
type Server struct {
	config Config
	router chi.Router
	log    *slog.Logger
	start  time.Time
}

// New creates a Server with its routes.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = logging.NewNop()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		log:    config.Logger,
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}

	if a := s.config.App; a != nil {
		r.Route("/api/tables", api.NewTablesHandler(s.config.Store, a).Routes)

		sess := &sessionHandler{app: a, log: s.log}
		r.Get("/api/session", sess.get)
		r.Post("/api/session/commit", sess.commit)
		r.Post("/api/session/reset", sess.reset)
		r.Post("/api/session/speak", sess.speak)
		r.Post("/api/session/camera", sess.camera)
		r.Put("/api/session/table", sess.table)

		r.Get("/api/messages", sess.listMessages)
		r.Post("/api/messages", sess.submitMessage)

		r.Post("/api/clips/ended", sess.clipEnded)
		r.Get("/api/clips/{id}", sess.clipSources)

		r.Handle("/api/stream", NewStreamHandler(a))
		r.Handle("/api/events", NewEventsHandler(a, s.log))
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	})
}

// ListenAndServe serves on addr until the server fails.
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Info("listening", "addr", addr)
	return srv.ListenAndServe()
}
