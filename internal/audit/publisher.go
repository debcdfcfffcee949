package audit

import (
	"context"
	"log/slog"
	"time"

	"bhulekh/pkg/requestcontext"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. Emission
// failures are logged, never returned: the trail must not take the workflow
// down with it.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// Emit enriches the event from the request context and appends it.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Origin == "" {
		event.Origin = requestcontext.Origin(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if _, err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit append failed",
			"transfer_id", event.TransferID,
			"action", event.Action,
			"error", err,
		)
	}
}

// List returns the trail for one transfer in sequence order.
func (p *Publisher) List(ctx context.Context, transferID string) ([]Event, error) {
	return p.store.ListByTransfer(ctx, transferID)
}
