package audit

import (
	"context"
	"log/slog"
	"time"

	"bhulekh/pkg/requestcontext"
)

// Queue buffers events for the worker to persist off the request path. A
// full buffer drops the event with a log line; the aggregate's embedded
// trail still holds the entry, so the stream degrades before the workflow
// does.
type Queue struct {
	store  Store
	inbox  chan Event
	logger *slog.Logger
}

func NewQueue(store Store, buffer int, logger *slog.Logger) *Queue {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Queue{store: store, inbox: make(chan Event, buffer), logger: logger}
}

// Events is the worker's feed.
func (q *Queue) Events() <-chan Event {
	return q.inbox
}

// Emit enriches the event from the request context and buffers it.
func (q *Queue) Emit(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Origin == "" {
		event.Origin = requestcontext.Origin(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case q.inbox <- event:
	default:
		q.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"transfer_id", event.TransferID,
			"action", event.Action,
		)
	}
}

// List returns the trail for one transfer in sequence order.
func (q *Queue) List(ctx context.Context, transferID string) ([]Event, error) {
	return q.store.ListByTransfer(ctx, transferID)
}
