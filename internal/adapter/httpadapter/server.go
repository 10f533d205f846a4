// Package httpadapter serves health, readiness, metrics and the dashboard API.
package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/waste-hotspot-service/internal/dashboard"
	"github.com/couchcryptid/waste-hotspot-service/internal/domain"
	"github.com/couchcryptid/waste-hotspot-service/internal/render"
	"github.com/couchcryptid/waste-hotspot-service/internal/selection"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dashboard is the set of operations the API exposes.
type Dashboard interface {
	sharedobs.ReadinessChecker
	Load(ctx context.Context, festival string) (dashboard.View, error)
	View(ctx context.Context) dashboard.View
	Layer(ctx context.Context) render.Layer
	Table() render.TableView
	Selection() selection.State
	Select(ctx context.Context, area string, source selection.Source) (selection.Transition, error)
	RequestInsights(ctx context.Context, festival string) (bool, error)
	Insights() (*domain.InsightsPayload, bool)
}

// Server exposes health, readiness, metrics and dashboard HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server. live may be nil, in which case /ws is
// not mounted.
func NewServer(addr string, d Dashboard, live http.Handler, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(d))
	r.Handle("/metrics", promhttp.Handler())

	h := &handlers{dashboard: d, logger: logger}
	r.Route("/api", func(r chi.Router) {
		r.Use(requestLogger(logger))
		r.Use(withSession)

		r.Post("/festivals/{festival}/load", h.load)
		r.Get("/view", h.view)
		r.Get("/map.geojson", h.geoJSON)
		r.Get("/table", h.table)
		r.Get("/selection", h.selection)
		r.Post("/selection", h.selectArea)
		r.Get("/insights", h.insights)
		r.Post("/insights", h.requestInsights)
	})
	if live != nil {
		r.Handle("/ws", live)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
