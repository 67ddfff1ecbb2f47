package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/handlers"

	"docregistry/pkg/platform/middleware/auth"
	"docregistry/pkg/platform/middleware/metadata"
	"docregistry/pkg/platform/middleware/request"
	"docregistry/pkg/platform/middleware/requesttime"
)

// DefaultJSONMaxBytes caps non-multipart request bodies.
const DefaultJSONMaxBytes = 1 << 20

// Routes is implemented by every module handler.
type Routes interface {
	Register(r chi.Router)
}

// RouterConfig collects everything NewRouter mounts.
type RouterConfig struct {
	Logger *slog.Logger

	// Health is mounted at the root: GET /, /health/live, /health/ready.
	Health Routes
	// Public routes are mounted under /api without authentication.
	Public []Routes
	// Protected routes are mounted under /api behind the bearer token gate.
	Protected []Routes

	TokenValidator auth.TokenValidator
	Metrics        *request.Metrics
	MetricsHandler http.Handler

	AllowedOrigins []string
	TrustedProxies []netip.Prefix
	JSONMaxBytes   int64
	UploadMaxBytes int64
}

// NewRouter wires the middleware stack and mounts module routes.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.JSONMaxBytes <= 0 {
		cfg.JSONMaxBytes = DefaultJSONMaxBytes
	}
	if cfg.UploadMaxBytes <= 0 {
		cfg.UploadMaxBytes = cfg.JSONMaxBytes
	}

	r := chi.NewRouter()

	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.NewMiddleware(&metadata.Config{TrustedProxies: cfg.TrustedProxies}).Handler)
	r.Use(request.Logger(cfg.Logger))
	r.Use(request.LatencyMiddleware(cfg.Metrics))
	r.Use(handlers.CORS(
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", "X-Request-ID"}),
		handlers.ExposedHeaders([]string{"X-Request-ID"}),
	))

	if cfg.Health != nil {
		cfg.Health.Register(r)
	}
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(request.BodyLimit(cfg.JSONMaxBytes, cfg.UploadMaxBytes))

		for _, routes := range cfg.Public {
			routes.Register(api)
		}

		api.Group(func(protected chi.Router) {
			protected.Use(auth.RequireAuth(cfg.TokenValidator, cfg.Logger))
			for _, routes := range cfg.Protected {
				routes.Register(protected)
			}
		})
	})

	return r
}
