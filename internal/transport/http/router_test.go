package httptransport

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "docregistry/pkg/domain"
	"docregistry/pkg/platform/httputil"
	"docregistry/pkg/platform/middleware/auth"
	"docregistry/pkg/platform/middleware/request"
	"docregistry/pkg/requestcontext"
)

type routeFunc func(r chi.Router)

func (f routeFunc) Register(r chi.Router) { f(r) }

type staticValidator struct {
	accountID id.AccountID
}

func (v staticValidator) ValidateToken(token string) (*auth.Claims, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Claims{AccountID: v.accountID.String(), Role: "citizen", Name: "Alice"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	public := routeFunc(func(r chi.Router) {
		r.Get("/verify/{hash}", func(w http.ResponseWriter, r *http.Request) {
			httputil.WriteJSON(w, http.StatusOK, map[string]string{"hash": chi.URLParam(r, "hash")})
		})
		r.Post("/auth/register", func(w http.ResponseWriter, r *http.Request) {
			if _, ok := httputil.DecodeJSON[map[string]any](w, r, logger, r.Context(), ""); !ok {
				return
			}
			w.WriteHeader(http.StatusCreated)
		})
	})
	protected := routeFunc(func(r chi.Router) {
		r.Get("/documents", func(w http.ResponseWriter, r *http.Request) {
			p, ok := requestcontext.Principal(r.Context())
			if !ok {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, map[string]string{"name": p.Name})
		})
	})
	health := routeFunc(func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	})

	return NewRouter(RouterConfig{
		Logger:         logger,
		Health:         health,
		Public:         []Routes{public},
		Protected:      []Routes{protected},
		TokenValidator: staticValidator{accountID: id.NewAccountID()},
		Metrics:        request.NewMetrics(reg),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AllowedOrigins: []string{"https://app.example"},
		JSONMaxBytes:   64,
	})
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("public routes need no token", func(t *testing.T) {
		rr := serve(httptest.NewRequest(http.MethodGet, "/api/verify/Qm123", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"hash":"Qm123"}`, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("protected routes reject missing token", func(t *testing.T) {
		rr := serve(httptest.NewRequest(http.MethodGet, "/api/documents", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), `"unauthorized"`)
	})

	t.Run("protected routes reject bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := serve(req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Contains(t, rr.Body.String(), `"invalid_credential"`)
	})

	t.Run("protected routes see the principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/documents", nil)
		req.Header.Set("Authorization", "Bearer good")
		rr := serve(req)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"name":"Alice"}`, rr.Body.String())
	})

	t.Run("status page at root", func(t *testing.T) {
		rr := serve(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("metrics exposed", func(t *testing.T) {
		serve(httptest.NewRequest(http.MethodGet, "/api/verify/abc", nil))
		rr := serve(httptest.NewRequest(http.MethodGet, "/metrics", nil))
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `docregistry_endpoint_latency_seconds`)
		assert.Contains(t, rr.Body.String(), `GET /api/verify/{hash}`)
	})

	t.Run("json bodies are capped", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"name":"`+strings.Repeat("x", 128)+`"}`))
		req.Header.Set("Content-Type", "application/json")
		rr := serve(req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Contains(t, rr.Body.String(), `"payload_too_large"`)

		req = httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"name":"a"}`))
		req.Header.Set("Content-Type", "application/json")
		assert.Equal(t, http.StatusCreated, serve(req).Code)
	})

	t.Run("cors preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/documents", nil)
		req.Header.Set("Origin", "https://app.example")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		req.Header.Set("Access-Control-Request-Headers", "Authorization")
		rr := serve(req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "https://app.example", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("cors simple request from allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/verify/abc", nil)
		req.Header.Set("Origin", "https://app.example")
		rr := serve(req)
		assert.Equal(t, "https://app.example", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}
