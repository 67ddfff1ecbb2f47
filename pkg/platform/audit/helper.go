package audit

import (
	"context"
	"log/slog"

	"docregistry/pkg/requestcontext"
)

// Emitter is satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Logger writes an audit line to the text log and, when an emitter is configured,
// forwards the event to it. Services embed one instead of talking to sinks directly.
type Logger struct {
	textLogger *slog.Logger
	emitter    Emitter
}

// NewLogger accepts nil for either argument.
func NewLogger(textLogger *slog.Logger, emitter Emitter) *Logger {
	return &Logger{textLogger: textLogger, emitter: emitter}
}

// Record enriches the event with request metadata, logs it with log_type=audit and emits it.
// Emission failures are logged and never surface to the caller.
func (l *Logger) Record(ctx context.Context, event Event, attributes ...any) {
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ClientLabel == "" {
		event.ClientLabel = requestcontext.ClientLabel(ctx)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}

	if l.textLogger != nil {
		args := append(attributes,
			"event", event.Action,
			"log_type", "audit",
			"request_id", event.RequestID,
		)
		if ref := event.AccountRef(); ref != "" {
			args = append(args, "account_id", ref)
		}
		if event.Subject != "" {
			args = append(args, "subject", event.Subject)
		}
		l.textLogger.InfoContext(ctx, event.Action, args...)
	}

	if l.emitter == nil {
		return
	}
	if err := l.emitter.Emit(ctx, event); err != nil && l.textLogger != nil {
		l.textLogger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"event", event.Action,
		)
	}
}
