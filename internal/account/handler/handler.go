package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docregistry/internal/account/models"
	"docregistry/pkg/platform/httputil"
	"docregistry/pkg/requestcontext"
)

// Service defines the registration and login operations.
type Service interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Account, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
}

// Handler serves the public account endpoints.
type Handler struct {
	accounts Service
	logger   *slog.Logger
}

func New(accounts Service, logger *slog.Logger) *Handler {
	return &Handler{accounts: accounts, logger: logger}
}

// Register mounts the routes; both are unauthenticated.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
}

// HandleRegister implements POST /auth/register.
//
// Input: { "name": "Alice", "email": "alice@example.com", "password": "...", "role": "citizen" }
// Output: 201 { "message": "Registration successful" }
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if _, err := h.accounts.Register(ctx, req); err != nil {
		h.logger.ErrorContext(ctx, "failed to register account",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &models.RegisterResponse{Message: "Registration successful"})
}

// HandleLogin implements POST /auth/login.
//
// Output: 200 { "token": "...", "user": { "id", "name", "role", "wallet" } }
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.LoginRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.accounts.Login(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
