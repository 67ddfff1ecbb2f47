package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	docmodels "docregistry/internal/document/models"
	"docregistry/internal/verification/metrics"
	"docregistry/internal/verification/models"
	dErrors "docregistry/pkg/domain-errors"
	"docregistry/pkg/platform/sentinel"
	"docregistry/pkg/platform/tracer"
)

// MaxIdentifierLength bounds lookup input; nothing stored is longer.
const MaxIdentifierLength = 256

// Lookup resolves an identifier against record id, content id and transaction
// reference, in that precedence. Returns sentinel.ErrNotFound when nothing matches.
type Lookup interface {
	FindByIdentifier(ctx context.Context, identifier string) (*docmodels.Document, error)
}

// Cache stores positive results. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, identifier string) (*models.Result, bool, error)
	Set(ctx context.Context, identifier string, result *models.Result) error
}

type Service struct {
	lookup  Lookup
	cache   Cache
	tracer  tracer.Tracer
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Service)

func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(lookup Lookup, opts ...Option) *Service {
	svc := &Service{lookup: lookup}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// Verify reports whether identifier names a registered document. Unknown identifiers
// are a normal {valid:false} answer, not an error.
func (s *Service) Verify(ctx context.Context, identifier string) (result *models.Result, err error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || len(identifier) > MaxIdentifierLength {
		s.metrics.IncLookup(false)
		return models.NotFound(), nil
	}

	ctx, span := s.tracer.Start(ctx, tracer.SpanVerifyLookup,
		tracer.String(tracer.AttrIdentifier, tracer.HashIdentifier(identifier)))
	defer func() { span.End(err) }()

	if cached, ok := s.readCache(ctx, identifier); ok {
		span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, true), tracer.Bool(tracer.AttrLookupMatched, true))
		s.metrics.IncLookup(true)
		return cached, nil
	}
	span.SetAttributes(tracer.Bool(tracer.AttrCacheHit, false))

	doc, err := s.lookup.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			span.SetAttributes(tracer.Bool(tracer.AttrLookupMatched, false))
			s.metrics.IncLookup(false)
			return models.NotFound(), nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up document")
	}

	span.SetAttributes(tracer.Bool(tracer.AttrLookupMatched, true))
	result = &models.Result{
		Valid: true,
		Type:  doc.Type,
		Owner: doc.OwnerName,
		Date:  doc.Date(),
	}
	s.writeCache(ctx, identifier, result)
	s.metrics.IncLookup(true)
	return result, nil
}

func (s *Service) readCache(ctx context.Context, identifier string) (*models.Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	cached, ok, err := s.cache.Get(ctx, identifier)
	if err != nil {
		s.metrics.IncCacheError()
		s.logger.WarnContext(ctx, "verify cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		s.metrics.IncCacheMiss()
		return nil, false
	}
	s.metrics.IncCacheHit()
	return cached, true
}

func (s *Service) writeCache(ctx context.Context, identifier string, result *models.Result) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, identifier, result); err != nil {
		s.metrics.IncCacheError()
		s.logger.WarnContext(ctx, "verify cache write failed", "error", err)
	}
}
