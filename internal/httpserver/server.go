// Package httpserver exposes the campaign core over HTTP: a start endpoint,
// a Server-Sent Events progress stream, health, metrics, and the dashboard's
// static assets.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/campaign"
	"github.com/navneetkhandelwal/email-campaign-dashboard/internal/config"
)

type Server struct {
	config     *config.Config
	service    *campaign.Service
	router     chi.Router
	httpServer *http.Server
	rateLimits *rateLimitStore
	log        zerolog.Logger
}

func New(cfg *config.Config, service *campaign.Service, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Basic per-IP rate limiting across all routes.
	rateLimits := newRateLimitStore()
	r.Use(rateLimitMiddleware(rateLimits, 60))

	s := &Server{
		config:     cfg,
		service:    service,
		router:     r,
		rateLimits: rateLimits,
		log:        log.With().Str("component", "http").Logger(),
	}
	s.registerRoutes()

	return s
}

// registerRoutes registers all routes on the router.
func (s *Server) registerRoutes() {
	s.router.Get("/health", s.HandleHealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api/campaign", func(r chi.Router) {
		// The progress stream stays open for the lifetime of the client
		// connection, so the request timeout applies to the start route only.
		r.With(middleware.Timeout(60 * time.Second)).Post("/start", s.HandleStartCampaign)
		r.Get("/progress", s.HandleProgressStream)
	})

	// Dashboard assets (CSS, JS, images).
	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.NotFound(s.HandleNotFound)
}

// HandleHealthCheck reports liveness.
func (s *Server) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// HandleNotFound handles 404 Not Found errors.
func (s *Server) HandleNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte("404 - Not Found: " + r.URL.Path))
}

func (s *Server) Run() error {
	s.httpServer = &http.Server{
		Addr:    s.config.HTTPAddress,
		Handler: s.router,
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Close() error {
	var err error
	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = shutdownErr
		}
	}
	if s.rateLimits != nil {
		s.rateLimits.Stop()
	}
	return err
}
