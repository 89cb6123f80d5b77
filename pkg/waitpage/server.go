// Copyright © 2018 One Concern

package waitpage

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed assets/index.html
var assets embed.FS

var pageTemplate = template.Must(template.ParseFS(assets, "assets/index.html"))

// Server of the wait page
type Server struct {
	m        *Monitor
	registry *prometheus.Registry
	page     []byte
}

// NewServer for a boot monitor
func NewServer(m *Monitor) (*Server, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewCollector(m)); err != nil {
		return nil, err
	}
	var page bytes.Buffer
	err := pageTemplate.Execute(&page, struct {
		Title  string
		Backup bool
	}{
		Title:  m.Profile().Title,
		Backup: m.Profile().Backup,
	})
	if err != nil {
		return nil, err
	}
	return &Server{m: m, registry: registry, page: page.Bytes()}, nil
}

func noStore(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
}

// HandleHealthz answers liveness checks
func (s *Server) HandleHealthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	}
}

// HandleStatus answers a placeholder, telling the page that the application is not up yet
func (s *Server) HandleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		noStore(w)
		_, _ = w.Write([]byte("placeholder"))
	}
}

// HandleState renders the boot state as JSON
func (s *Server) HandleState() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := json.Marshal(s.m.State())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		noStore(w)
		_, _ = w.Write(data)
	}
}

// HandlePage renders the progress page
func (s *Server) HandlePage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		noStore(w)
		_, _ = w.Write(s.page)
	}
}

// InitRouter routes the wait page endpoints. Any other GET renders the page.
func InitRouter(srv *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", srv.HandleHealthz())
	r.Get("/status", srv.HandleStatus())
	r.Get("/state", srv.HandleState())
	r.Handle("/metrics", promhttp.HandlerFor(srv.registry, promhttp.HandlerOpts{}))
	r.Get("/*", srv.HandlePage())

	return r
}

// ListenAndServe serves the wait page until the context is done, then shuts down gracefully
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, l *zap.Logger) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		l.Info("serving wait page", zap.String("addr", addr))
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		l.Info("shutting down wait page")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
