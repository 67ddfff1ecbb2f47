package audit

import (
	"context"
	"time"

	id "docregistry/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so sinks (memory, Kafka) can fan out.
type Event struct {
	Timestamp   time.Time    `json:"timestamp"`
	AccountID   id.AccountID `json:"-"`
	Role        string       `json:"role,omitempty"`
	Action      string       `json:"action"`
	Subject     string       `json:"subject,omitempty"` // document id for document events
	Decision    string       `json:"decision,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	RequestID   string       `json:"request_id,omitempty"`
	ClientLabel string       `json:"client,omitempty"`
}

// AccountRef renders the acting account for sinks; empty for anonymous events.
func (e Event) AccountRef() string {
	if e.AccountID.IsNil() {
		return ""
	}
	return e.AccountID.String()
}

type Action string

const (
	EventAccountRegistered Action = "account_registered"
	EventLoginSucceeded    Action = "login_succeeded"
	EventLoginFailed       Action = "login_failed"
	EventDocumentRequested Action = "document_requested"
	EventDocumentIssued    Action = "document_issued"
	EventStatusChanged     Action = "document_status_changed"
	EventUploadFailed      Action = "document_upload_failed"
)

// Store is a destination for audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
