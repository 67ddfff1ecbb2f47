package publisher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	dErrors "docregistry/pkg/domain-errors"
	audit "docregistry/pkg/platform/audit"
	auditmetrics "docregistry/pkg/platform/audit/metrics"
)

// Publisher hands audit events to a store, optionally through a bounded buffer
// drained by a background goroutine.
type Publisher struct {
	store   audit.Store
	events  chan audit.Event
	wg      sync.WaitGroup
	logger  *slog.Logger
	metrics *auditmetrics.Metrics
	async   bool
}

type PublisherOption func(*Publisher)

// WithAsyncBuffer enables async processing with the specified buffer size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan audit.Event, size)
			p.async = true
		}
	}
}

func WithPublisherLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *auditmetrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store audit.Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	if p.async {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for event := range p.events {
		if p.metrics != nil {
			p.metrics.QueueDepth.Dec()
		}
		if err := p.persist(context.Background(), event); err != nil && p.logger != nil {
			p.logger.Error("failed to persist audit event",
				"error", err,
				"action", event.Action,
				"account_id", event.AccountRef(),
			)
		}
	}
}

func (p *Publisher) persist(ctx context.Context, event audit.Event) error {
	start := time.Now()
	err := p.store.Append(ctx, event)
	if p.metrics != nil {
		p.metrics.PersistDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			p.metrics.PersistFailures.Inc()
		}
	}
	return err
}

// Close stops accepting events and waits for the buffer to drain.
func (p *Publisher) Close() {
	if p.async && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if !p.async {
		return p.persist(ctx, event)
	}

	select {
	case p.events <- event:
		if p.metrics != nil {
			p.metrics.EventsEnqueued.Inc()
			p.metrics.QueueDepth.Inc()
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		if p.metrics != nil {
			p.metrics.EventsDropped.Inc()
		}
		if p.logger != nil {
			p.logger.Warn("audit buffer full, event dropped",
				"action", event.Action,
				"account_id", event.AccountRef(),
			)
		}
		return dErrors.New(dErrors.CodeInternal, "audit buffer full")
	}
}
