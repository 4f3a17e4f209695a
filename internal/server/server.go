// Package server is the HTTP boundary: it collects request
// parameters, checks the session once, runs the router → controller →
// model → view pipeline and decides between rendering and redirecting.
package server

import (
	"database/sql"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"newsfeed/internal/app"
	"newsfeed/internal/config"
	"newsfeed/internal/router"
	"newsfeed/internal/session"
	"newsfeed/internal/store"
	"newsfeed/internal/view"
)

type Server struct {
	store *store.Store
	app   *app.App
	view  *view.View
	cfg   *config.Config
	log   *zap.Logger
}

func New(database *sql.DB, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	st := store.New(database, logger)
	v, err := view.New(cfg.Templates)
	if err != nil {
		return nil, err
	}
	return &Server{
		store: st,
		app:   app.New(st, cfg, logger),
		view:  v,
		cfg:   cfg,
		log:   logger,
	}, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	r.Get("/", s.handleIndex)
	r.Post("/", s.handleIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.routes().ServeHTTP(w, r)
}

// handleIndex is the single dispatch endpoint: every page of the site
// is addressed through the page parameter.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	params := make(map[string]string, len(r.Form))
	for key, values := range r.Form {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	sess := session.New(s.store, clientIP(r))
	sess.CheckRequest(r)

	module, action := router.Resolve(params["page"])
	payload, err := router.Build(action, params["page"], params, s.cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.app.Execute(sess, module, payload)
	if err != nil {
		if errors.Is(err, app.ErrUnauthorized) {
			http.Error(w, err.Error(), http.StatusForbidden)
			return
		}
		s.log.Error("execute failed", zap.String("page", params["page"]), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	sess.Apply(w)
	if res.Redirect != "" {
		http.Redirect(w, r, res.Redirect, http.StatusSeeOther)
		return
	}

	body, err := s.view.Render(res, sess)
	if err != nil {
		s.log.Error("render failed", zap.String("action", string(res.Action)), zap.Error(err))
		http.Error(w, "render error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

// requestLogger emits one line per request with a correlation id.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("id", uuid.NewString()),
			zap.String("method", r.Method),
			zap.String("page", r.FormValue("page")),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
		)
	})
}

// clientIP returns the request IP without the port. RealIP has already
// substituted any proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
