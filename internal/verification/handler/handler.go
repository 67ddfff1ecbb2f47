package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docregistry/internal/verification/models"
	"docregistry/pkg/platform/httputil"
	"docregistry/pkg/requestcontext"
)

// Service answers public document lookups.
type Service interface {
	Verify(ctx context.Context, identifier string) (*models.Result, error)
}

type Handler struct {
	verifier Service
	logger   *slog.Logger
}

func New(verifier Service, logger *slog.Logger) *Handler {
	return &Handler{verifier: verifier, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/verify/{hash}", h.HandleVerify)
}

// HandleVerify implements GET /verify/{hash}. The hash may be a record id, an IPFS
// content id or a transaction hash. Unknown values answer 200 { "valid": false }.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	result, err := h.verifier.Verify(ctx, chi.URLParam(r, "hash"))
	if err != nil {
		h.logger.ErrorContext(ctx, "verify lookup failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
