// Package server exposes the reader panel over HTTP: a small page, a
// websocket that drives one Panel per connection and a synchronous lookup
// endpoint.
package server

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"lookup/page"
	"lookup/reader"
	"lookup/settings"
)

//go:embed static/*
var staticFS embed.FS

// Options configures a Server.
type Options struct {
	HistorySize int
	Logger      *slog.Logger
}

// Server is the HTTP surface of the reader.
type Server struct {
	router  chi.Router
	hub     *Hub
	fetch   reader.Fetcher
	format  *page.Formatter
	store   settings.Store
	opts    Options
	log     *slog.Logger
	started time.Time
	lookups atomic.Int64
}

// New creates a server. Filters are read from store for every new panel
// and every synchronous lookup.
func New(fetch reader.Fetcher, format *page.Formatter, store settings.Store, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		hub:     NewHub(log),
		fetch:   fetch,
		format:  format,
		store:   store,
		opts:    opts,
		log:     log,
		started: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/*", http.FileServer(http.FS(static)))
	r.Get("/ws", s.handleWebSocket)
	r.Get("/api/lookup", s.handleLookup)
	r.Get("/api/status", s.handleStatus)

	s.router = r
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	word := q.Get("q")
	if word == "" {
		jsonError(w, "missing q", http.StatusBadRequest)
		return
	}

	filters := settings.Load(s.store, s.log)
	req := page.Request{
		Name:     word,
		Language: filters.Selected(),
		Ignored:  filters.IgnoredSections(),
		Format:   true,
	}
	if q.Has("lang") {
		req.Language = q.Get("lang")
	}
	if v := q.Get("format"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			req.Format = b
		}
	}

	s.lookups.Add(1)
	f, err := reader.Lookup(r.Context(), s.fetch, s.format, req, s.log)
	if errors.Is(err, reader.ErrNotFound) {
		jsonError(w, "no entry for "+strconv.Quote(word), http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}

	body, err := f.HTML()
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"clients": s.hub.Len(),
		"lookups": humanize.Comma(s.lookups.Load()),
		"started": humanize.Time(s.started),
	})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newClient(ctx, conn, s.log)
	c.panel = reader.NewPanel(s.fetch, s.format, c, reader.Options{HistorySize: s.opts.HistorySize, Logger: c.log})
	c.onLookup = func() { s.lookups.Add(1) }

	s.hub.Register(c)
	defer s.hub.Unregister(c)

	go c.panel.Run(ctx)
	go c.writePump()
	c.panel.ApplyFilters(settings.Load(s.store, c.log))
	c.readPump()
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// RequestLogger logs incoming requests.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", middleware.GetReqID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
