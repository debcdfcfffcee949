package audit

import "context"

// Store persists audit events. Append assigns the per-transfer sequence and
// must preserve the order in which appends for one transfer were accepted.
type Store interface {
	Append(ctx context.Context, event Event) (Event, error)
	ListByTransfer(ctx context.Context, transferID string) ([]Event, error)
}
