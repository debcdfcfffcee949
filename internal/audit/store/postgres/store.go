package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"bhulekh/internal/audit"
	id "bhulekh/pkg/domain"
)

// Store appends audit events to the audit_events table. The per-transfer
// sequence is assigned inside the insert so concurrent appends for one
// transfer serialize on the unique (transfer_id, seq) index.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) (audit.Event, error) {
	var details []byte
	if event.Details != nil {
		var err error
		details, err = json.Marshal(event.Details)
		if err != nil {
			return audit.Event{}, fmt.Errorf("marshal audit details: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (id, transfer_id, seq, action, performed_by, occurred_at, details, origin, request_id)
		VALUES ($1, $2,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM audit_events WHERE transfer_id = $2),
			$3, $4, $5, $6, $7, $8)
		RETURNING seq
	`
	row := s.db.QueryRowContext(ctx, query,
		uuid.New(),
		string(event.TransferID),
		string(event.Action),
		event.PerformedBy,
		event.Timestamp,
		details,
		event.Origin,
		event.RequestID,
	)
	if err := row.Scan(&event.Seq); err != nil {
		return audit.Event{}, fmt.Errorf("insert audit event: %w", err)
	}
	return event, nil
}

func (s *Store) ListByTransfer(ctx context.Context, transferID string) ([]audit.Event, error) {
	query := `
		SELECT transfer_id, seq, action, performed_by, occurred_at, details, origin, request_id
		FROM audit_events
		WHERE transfer_id = $1
		ORDER BY seq
	`
	rows, err := s.db.QueryContext(ctx, query, transferID)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			event   audit.Event
			tid     string
			action  string
			details []byte
		)
		if err := rows.Scan(&tid, &event.Seq, &action, &event.PerformedBy,
			&event.Timestamp, &details, &event.Origin, &event.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		event.TransferID = id.TransferID(tid)
		event.Action = audit.Action(action)
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
