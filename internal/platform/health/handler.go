// Package health provides the status page and liveness/readiness probes.
package health

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"docregistry/pkg/platform/httputil"
)

// Version is set at build time via ldflags.
var Version = "dev"

const checkTimeout = 2 * time.Second

// CheckFunc reports nil when the dependency is healthy.
type CheckFunc func(ctx context.Context) error

// DegradedFunc reports whether a dependency is currently failing. Degraded
// dependencies are shown on the status page but do not affect readiness.
type DegradedFunc func() bool

type Handler struct {
	startTime time.Time
	logger    *slog.Logger
	markdown  goldmark.Markdown

	mu       sync.RWMutex
	checks   map[string]CheckFunc
	advisory map[string]DegradedFunc
}

func New(logger *slog.Logger) *Handler {
	return &Handler{
		startTime: time.Now(),
		logger:    logger,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.Table)),
		checks:    make(map[string]CheckFunc),
		advisory:  make(map[string]DegradedFunc),
	}
}

// RegisterCheck adds a named dependency check used by readiness and the status page.
func (h *Handler) RegisterCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RegisterAdvisory adds a named indicator shown only on the status page.
func (h *Handler) RegisterAdvisory(name string, degraded DegradedFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.advisory[name] = degraded
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleStatusPage)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

type LivenessResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, LivenessResponse{Status: "alive"})
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// HandleReadiness returns 503 when any registered dependency is down.
func (h *Handler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	results, healthy := h.runChecks(r.Context())

	response := ReadinessResponse{Status: "ready", Checks: results}
	if !healthy {
		response.Status = "not_ready"
		httputil.WriteJSON(w, http.StatusServiceUnavailable, response)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, response)
}

// HandleStatusPage renders a human-readable page with dependency status.
// It always answers 200 so a browser shows the page even when the database is down.
// Check errors are logged, never rendered.
func (h *Handler) HandleStatusPage(w http.ResponseWriter, r *http.Request) {
	results, _ := h.runChecks(r.Context())
	h.mu.RLock()
	for name, degraded := range h.advisory {
		if degraded() {
			results[name] = "degraded"
		} else {
			results[name] = "ok"
		}
	}
	h.mu.RUnlock()

	var src bytes.Buffer
	src.WriteString("# Document registry is running\n\n")
	src.WriteString("The API is ready to serve requests from the frontend.\n\n")
	src.WriteString("| Dependency | Status |\n|---|---|\n")
	for _, name := range slices.Sorted(maps.Keys(results)) {
		fmt.Fprintf(&src, "| %s | %s |\n", name, results[name])
	}
	fmt.Fprintf(&src, "\nVersion `%s`, up %s.\n", Version, time.Since(h.startTime).Truncate(time.Second))

	var page bytes.Buffer
	page.WriteString("<!doctype html><html><head><meta charset=\"utf-8\"><title>docregistry</title></head><body>")
	if err := h.markdown.Convert(src.Bytes(), &page); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render status page", "error", err)
		http.Error(w, "status page unavailable", http.StatusInternalServerError)
		return
	}
	page.WriteString("</body></html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(page.Bytes())
}

func (h *Handler) runChecks(ctx context.Context) (map[string]string, bool) {
	h.mu.RLock()
	checks := maps.Clone(h.checks)
	h.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	results := make(map[string]string, len(checks))
	healthy := true
	for name, check := range checks {
		if err := check(ctx); err != nil {
			h.logger.WarnContext(ctx, "dependency check failed", "check", name, "error", err)
			results[name] = "down"
			healthy = false
			continue
		}
		results[name] = "up"
	}
	return results, healthy
}
