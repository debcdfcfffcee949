// Package worker drains buffered audit events into the store off the request
// path.
package worker

import (
	"context"
	"log/slog"

	"bhulekh/internal/audit"
)

// Worker consumes audit events from a channel and persists them. A failed
// append is logged and dropped rather than crashing the loop; the aggregate's
// embedded trail still holds the entry.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if _, err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit append failed",
					"transfer_id", event.TransferID,
					"action", event.Action,
					"error", err,
				)
			}
		}
	}
}
