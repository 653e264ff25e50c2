// Package api serves chart computation, house cusps, Julian Day conversion
// and the chart archive over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/papapumpkin/astrolabe/internal/archive"
	"github.com/papapumpkin/astrolabe/internal/chart"
	"github.com/papapumpkin/astrolabe/internal/config"
	"github.com/papapumpkin/astrolabe/internal/engine"
	"github.com/papapumpkin/astrolabe/internal/telemetry"
)

// Archive is the chart store behind the /v1/charts endpoints.
type Archive interface {
	Save(ctx context.Context, name, fingerprint string, snap *chart.Snapshot) (archive.Entry, error)
	Get(ctx context.Context, id string) (archive.Record, error)
	List(ctx context.Context) ([]archive.Entry, error)
	Delete(ctx context.Context, id string) error
}

// Option configures a Server.
type Option func(*Server)

// WithArchive enables saving and listing charts.
func WithArchive(a Archive) Option {
	return func(s *Server) { s.archive = a }
}

// Server is the HTTP front end of an Engine.
type Server struct {
	engine  *engine.Engine
	archive Archive
	cfg     config.ServerConfig
	limiter *rateLimiter
	logger  zerolog.Logger
}

// New returns a Server computing charts with eng.
func New(eng *engine.Engine, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		engine:  eng,
		cfg:     cfg,
		limiter: newRateLimiter(cfg.RateLimit, cfg.Burst),
		logger:  eng.Logger().With().Str("component", "api").Logger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler with CORS, rate limiting and request
// accounting applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.observe)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler)
	r.Use(s.limiter.middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if rec := s.engine.Recorder(); rec != nil {
		r.Method(http.MethodGet, "/metrics", rec.Handler())
	}
	r.Route("/v1", func(r chi.Router) {
		r.Post("/charts", s.handleCompute)
		r.Get("/charts", s.handleList)
		r.Get("/charts/{id}", s.handleGet)
		r.Delete("/charts/{id}", s.handleDelete)
		r.Post("/houses", s.handleHouses)
		r.Get("/jd", s.handleJulianDay)
	})
	return r
}

// ListenAndServe serves on the configured address until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info().Str("addr", s.cfg.Addr).Msg("listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("api: serve: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api: shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api: serve: %w", err)
	}
	return nil
}

// unmatchedRoute is the metric and telemetry label of requests that matched
// no route.
const unmatchedRoute = "unmatched"

// observe logs each request and records it in metrics and telemetry.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := unmatchedRoute
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		s.engine.Recorder().ObserveRequest(route, status, elapsed)
		s.engine.Emit(telemetry.Event{
			Kind:   telemetry.KindAPIRequest,
			Source: route,
			Data:   map[string]any{"method": r.Method, "status": status, "elapsed_ms": elapsed.Milliseconds()},
		})
		s.logger.Debug().
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}
