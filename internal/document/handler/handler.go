package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"docregistry/internal/document/models"
	id "docregistry/pkg/domain"
	dErrors "docregistry/pkg/domain-errors"
	"docregistry/pkg/platform/httputil"
	"docregistry/pkg/requestcontext"
)

// multipartMemory is how much of a multipart body is buffered before spilling to disk.
const multipartMemory = 8 << 20

// Service defines the document lifecycle operations.
type Service interface {
	List(ctx context.Context, caller id.Principal) ([]models.ListItem, error)
	Request(ctx context.Context, caller id.Principal, input *models.RequestDocumentInput) (*models.RequestResult, error)
	Issue(ctx context.Context, caller id.Principal, req *models.IssueRequest) (*models.IssueResult, error)
	UpdateStatus(ctx context.Context, caller id.Principal, documentID string, req *models.UpdateStatusRequest) (*models.DocumentView, error)
}

// Handler serves the authenticated document endpoints.
type Handler struct {
	documents Service
	logger    *slog.Logger
}

func New(documents Service, logger *slog.Logger) *Handler {
	return &Handler{documents: documents, logger: logger}
}

// Register mounts the routes. The parent router must apply the auth middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/documents", h.HandleList)
	r.Post("/documents/request", h.HandleRequest)
	r.Post("/documents/issue", h.HandleIssue)
	r.Patch("/documents/{id}/verify", h.HandleUpdateStatus)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}

	items, err := h.documents.List(ctx, caller)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list documents",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, items)
}

// HandleRequest implements POST /documents/request with a multipart body carrying
// "title", "type" and the "file" part.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if !caller.IsCitizen() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only citizens can request documents"))
		return
	}

	input, err := readSubmission(r)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to read document submission",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.documents.Request(ctx, caller, input)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to request document",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if !caller.IsInstitution() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only institutions can issue documents"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.IssueRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.documents.Issue(ctx, caller, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to issue document",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

// HandleUpdateStatus implements PATCH /documents/{id}/verify.
//
// Input: { "status": "verified" }
// Output: { "message": "Updated", "doc": { ... } }
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	caller, ok := h.caller(w, r)
	if !ok {
		return
	}
	if !caller.IsInstitution() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "only institutions can change document status"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[models.UpdateStatusRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	view, err := h.documents.UpdateStatus(ctx, caller, chi.URLParam(r, "id"), req)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to update document status",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &models.UpdateStatusResult{Message: "Updated", Document: *view})
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (id.Principal, bool) {
	principal, ok := requestcontext.Principal(r.Context())
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.Principal{}, false
	}
	return principal, true
}

// readSubmission parses the multipart form. A missing file part is not an error here;
// the service reports it as missing_file after the role check.
func readSubmission(r *http.Request) (*models.RequestDocumentInput, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.New(dErrors.CodeTooLarge, "file exceeds the upload size limit")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "expected a multipart/form-data body")
	}

	input := &models.RequestDocumentInput{
		Title: r.FormValue("title"),
		Type:  r.FormValue("type"),
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return input, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read file part")
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read file part")
	}
	input.File = content
	input.Filename = header.Filename
	return input, nil
}
