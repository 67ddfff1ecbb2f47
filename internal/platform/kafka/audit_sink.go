package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"docregistry/internal/platform/kafka/producer"
	audit "docregistry/pkg/platform/audit"
)

// MessageProducer is satisfied by *producer.Producer.
type MessageProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// AuditSink publishes audit events as JSON records. Records are keyed by the
// document id when present, else by account, so one subject's events stay ordered.
type AuditSink struct {
	producer MessageProducer
	topic    string
}

func NewAuditSink(p MessageProducer, topic string) *AuditSink {
	return &AuditSink{producer: p, topic: topic}
}

type auditRecord struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      string    `json:"action"`
	AccountID   string    `json:"account_id,omitempty"`
	Role        string    `json:"role,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	Decision    string    `json:"decision,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
	ClientLabel string    `json:"client,omitempty"`
}

func (s *AuditSink) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(auditRecord{
		Timestamp:   event.Timestamp.UTC(),
		Action:      event.Action,
		AccountID:   event.AccountRef(),
		Role:        event.Role,
		Subject:     event.Subject,
		Decision:    event.Decision,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
		ClientLabel: event.ClientLabel,
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}

	key := event.Subject
	if key == "" {
		key = event.AccountRef()
	}

	return s.producer.Produce(ctx, &producer.Message{
		Topic:   s.topic,
		Key:     []byte(key),
		Value:   value,
		Headers: map[string]string{"event_type": event.Action},
	})
}
