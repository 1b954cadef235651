// Package api provides the HTTP API server and handlers for the Packdex resolver.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/packdex/packdex-server/internal/ratelimit"
)

// Options configures the HTTP surface.
type Options struct {
	Name    string
	Version string
	// CORSOrigins defaults to "*".
	CORSOrigins []string
	// FindRatePerMinute limits find requests per tenant. Zero disables the limit.
	FindRatePerMinute int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	services    *Services
	router      chi.Router
	api         huma.API
	logger      *slog.Logger
	findLimiter *ratelimit.KeyedRateLimiter
	findRate    int
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(services *Services, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if opts.Name == "" {
		opts.Name = "Packdex API"
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(corsOptions(opts.CORSOrigins)))

	humaConfig := huma.DefaultConfig(opts.Name, opts.Version)
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		services: services,
		router:   router,
		api:      api,
		logger:   logger,
	}
	if opts.FindRatePerMinute > 0 {
		s.findLimiter = ratelimit.PerMinute(opts.FindRatePerMinute)
		s.findRate = opts.FindRatePerMinute
	}

	s.registerRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API exposes the huma API, mainly for OpenAPI generation.
func (s *Server) API() huma.API {
	return s.api
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	if s.findLimiter != nil {
		s.findLimiter.Stop()
	}
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerFindRoutes()
	s.registerEntityRoutes()
	s.registerTenantPackRoutes()
	s.registerDisabledRoutes()
	s.registerPackRoutes()
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}
}

// requestLogger logs one line per request at debug level, or warn for server errors.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
