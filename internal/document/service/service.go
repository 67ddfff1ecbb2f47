package service

import (
	"context"
	"errors"
	"log/slog"

	"docregistry/internal/document/metrics"
	"docregistry/internal/document/models"
	id "docregistry/pkg/domain"
	dErrors "docregistry/pkg/domain-errors"
	"docregistry/pkg/platform/audit"
	"docregistry/pkg/platform/sentinel"
	"docregistry/pkg/requestcontext"
)

// DocumentStore defines the persistence interface for documents.
// Error Contract: FindByID and UpdateStatus return sentinel.ErrNotFound for unknown ids;
// UpdateStatus returns sentinel.ErrInvalidState when the expected status no longer holds.
// FindByIdentifier returns sentinel.ErrNotFound when nothing matches.
type DocumentStore interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, docID id.DocumentID) (*models.Document, error)
	FindByIdentifier(ctx context.Context, identifier string) (*models.Document, error)
	ListAll(ctx context.Context) ([]*models.Document, error)
	ListByOwner(ctx context.Context, owner id.AccountID) ([]*models.Document, error)
	UpdateStatus(ctx context.Context, docID id.DocumentID, from, to models.Status) (*models.Document, error)
}

// Uploader pins file content and returns its content identifier.
type Uploader interface {
	Upload(ctx context.Context, content []byte, filename string) (string, error)
}

type Service struct {
	documents      DocumentStore
	uploader       Uploader
	logger         *slog.Logger
	auditPublisher audit.Emitter
	auditLogger    *audit.Logger
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher audit.Emitter) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(documents DocumentStore, uploader Uploader, opts ...Option) *Service {
	svc := &Service{
		documents: documents,
		uploader:  uploader,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	svc.auditLogger = audit.NewLogger(svc.logger, svc.auditPublisher)
	return svc
}

// List returns the caller's own documents for citizens and every document for institutions.
func (s *Service) List(ctx context.Context, caller id.Principal) ([]models.ListItem, error) {
	var (
		docs []*models.Document
		err  error
	)
	if caller.IsCitizen() {
		docs, err = s.documents.ListByOwner(ctx, caller.AccountID)
	} else {
		docs, err = s.documents.ListAll(ctx)
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}

	items := make([]models.ListItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.ListItem())
	}
	return items, nil
}

// Request pins the citizen's file and records a pending document. Nothing is stored
// when the upload fails.
func (s *Service) Request(ctx context.Context, caller id.Principal, input *models.RequestDocumentInput) (*models.RequestResult, error) {
	if !caller.IsCitizen() {
		s.metrics.IncForbidden("request")
		return nil, dErrors.New(dErrors.CodeForbidden, "only citizens can request documents")
	}
	if len(input.File) == 0 {
		return nil, dErrors.New(dErrors.CodeMissingFile, "file is required")
	}
	input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, err
	}

	contentID, err := s.uploader.Upload(ctx, input.File, input.Filename)
	if err != nil {
		s.metrics.IncUploadFailure()
		s.auditLogger.Record(ctx, audit.Event{
			AccountID: caller.AccountID,
			Role:      caller.Role.String(),
			Action:    string(audit.EventUploadFailed),
			Decision:  "aborted",
			Reason:    "upload_failed",
		})
		return nil, dErrors.Wrap(err, dErrors.CodeUploadFailed, "failed to upload document")
	}

	owner := caller.AccountID
	doc := &models.Document{
		ID:        id.NewDocumentID(),
		Title:     input.Title,
		Type:      input.Type,
		OwnerName: caller.Name,
		OwnerID:   &owner,
		ContentID: contentID,
		Status:    models.StatusPending,
		CreatedAt: requestcontext.Now(ctx).UTC(),
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save document")
	}

	s.metrics.IncCreated("requested")
	s.auditLogger.Record(ctx, audit.Event{
		AccountID: caller.AccountID,
		Role:      caller.Role.String(),
		Action:    string(audit.EventDocumentRequested),
		Subject:   doc.ID.String(),
	})
	return &models.RequestResult{
		ID:      doc.ID.String(),
		Title:   doc.Title,
		Type:    doc.Type,
		IpfsCID: doc.ContentID,
		Status:  doc.Status.String(),
		Date:    doc.Date(),
	}, nil
}

// Issue records an already verified document. The owner link is optional and never checked.
func (s *Service) Issue(ctx context.Context, caller id.Principal, req *models.IssueRequest) (*models.IssueResult, error) {
	if !caller.IsInstitution() {
		s.metrics.IncForbidden("issue")
		return nil, dErrors.New(dErrors.CodeForbidden, "only institutions can issue documents")
	}

	doc := &models.Document{
		ID:          id.NewDocumentID(),
		Title:       req.Title,
		Type:        req.Type,
		OwnerName:   req.CitizenName,
		ContentID:   req.IpfsCID,
		TxRef:       req.TxHash,
		RegistryRef: req.ContractAddress,
		RegistryID:  req.BlockchainID,
		Status:      models.StatusVerified,
		CreatedAt:   requestcontext.Now(ctx).UTC(),
	}
	if doc.OwnerName == "" {
		doc.OwnerName = caller.Name
	}
	if req.OwnerID != "" {
		owner, err := id.ParseAccountID(req.OwnerID)
		if err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, "owner_id must be a valid uuid")
		}
		doc.OwnerID = &owner
	}
	if err := s.checkContentIDUnclaimed(ctx, doc.ContentID); err != nil {
		return nil, err
	}

	if err := s.documents.Create(ctx, doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save document")
	}

	s.metrics.IncCreated("issued")
	s.auditLogger.Record(ctx, audit.Event{
		AccountID: caller.AccountID,
		Role:      caller.Role.String(),
		Action:    string(audit.EventDocumentIssued),
		Subject:   doc.ID.String(),
	})
	return &models.IssueResult{Message: "Document issued", ID: doc.ID.String()}, nil
}

// checkContentIDUnclaimed rejects a content id that an earlier document carries as its
// transaction reference. Content ids outrank transaction references in verification, so
// accepting it would change what an already answered identifier resolves to.
func (s *Service) checkContentIDUnclaimed(ctx context.Context, contentID string) error {
	if contentID == "" {
		return nil
	}
	existing, err := s.documents.FindByIdentifier(ctx, contentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ipfsCid")
	}
	if existing.ContentID != contentID && existing.ID.String() != contentID {
		return dErrors.New(dErrors.CodeConflict, "ipfsCid is already registered as a transaction hash")
	}
	return nil
}

// UpdateStatus applies an allowed transition. Re-applying the current status changes nothing.
func (s *Service) UpdateStatus(ctx context.Context, caller id.Principal, rawID string, req *models.UpdateStatusRequest) (*models.DocumentView, error) {
	if !caller.IsInstitution() {
		s.metrics.IncForbidden("update_status")
		return nil, dErrors.New(dErrors.CodeForbidden, "only institutions can change document status")
	}

	next, err := models.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}
	docID, err := id.ParseDocumentID(rawID)
	if err != nil {
		// Unparseable ids cannot name a stored document.
		return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
	}

	current, err := s.documents.FindByID(ctx, docID)
	if err != nil {
		return nil, s.translateStoreError(err, "failed to load document")
	}
	if current.Status == next {
		view := current.View()
		return &view, nil
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, dErrors.New(dErrors.CodeConflict, "cannot change status from "+current.Status.String()+" to "+next.String())
	}

	updated, err := s.documents.UpdateStatus(ctx, docID, current.Status, next)
	if err != nil {
		return nil, s.translateStoreError(err, "failed to update document status")
	}

	s.metrics.IncTransition(current.Status.String(), next.String())
	s.auditLogger.Record(ctx, audit.Event{
		AccountID: caller.AccountID,
		Role:      caller.Role.String(),
		Action:    string(audit.EventStatusChanged),
		Subject:   docID.String(),
		Decision:  next.String(),
		Reason:    "from_" + current.Status.String(),
	})
	view := updated.View()
	return &view, nil
}

func (s *Service) translateStoreError(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "document not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeConflict, "document status changed concurrently")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
