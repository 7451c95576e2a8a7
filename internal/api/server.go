// Package api serves the library over HTTP. Routes are huma operations
// mounted on a chi router; every JSON response is wrapped in the versioned
// envelope produced by EnvelopeTransformer.
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

	"github.com/bookshelfapp/bookshelf-server/internal/auth"
	"github.com/bookshelfapp/bookshelf-server/internal/ratelimit"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// Version is reported in the OpenAPI document.
const Version = "1.0.0"

// Lookup calls leave the server for third-party catalogues, so each user
// gets a modest allowance.
const (
	lookupPerMinute = 30
	lookupBurst     = 10
)

// Options configures NewServer.
type Options struct {
	// CORSOrigins lists allowed browser origins. Empty disables CORS headers.
	CORSOrigins []string
}

// Server is the HTTP API.
type Server struct {
	store         store.DocumentStore
	services      *Services
	tokens        *auth.TokenService
	router        *chi.Mux
	api           huma.API
	lookupLimiter *ratelimit.Limiter
	logger        *slog.Logger
}

// NewServer builds the router and registers every route.
func NewServer(st store.DocumentStore, services *Services, tokens *auth.TokenService, opts Options, logger *slog.Logger) *Server {
	s := &Server{
		store:         st,
		services:      services,
		tokens:        tokens,
		router:        chi.NewRouter(),
		lookupLimiter: ratelimit.Every(lookupPerMinute, time.Minute, lookupBurst),
		logger:        logger,
	}

	s.setupMiddleware(opts)

	cfg := huma.DefaultConfig("Bookshelf API", Version)
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	cfg.Transformers = append(cfg.Transformers, EnvelopeTransformer)
	s.api = humachi.New(s.router, cfg)
	RegisterErrorHandler()

	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources.
func (s *Server) Close() {
	s.lookupLimiter.Stop()
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	s.router.Use(authMiddleware(s.tokens))
}

func (s *Server) setupRoutes() {
	s.registerHealthRoutes()
	s.registerBookRoutes()
	s.registerLibraryRoutes()
	s.registerGenreRoutes()
	s.registerSeriesRoutes()
	s.registerWishlistRoutes()
	s.registerSearchRoutes()
	s.registerLookupRoutes()
	s.registerBackupRoutes()
}

// requestLogger logs one line per request at debug level, and at warn for
// server errors.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
