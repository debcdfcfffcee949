//go:build integration

package containers

import (
	"context"
	"database/sql"
)

// Schema mirrors the production migrations closely enough for store tests.
const schema = `
CREATE TABLE IF NOT EXISTS transfers (
	transfer_id    TEXT PRIMARY KEY,
	property_ref   TEXT NOT NULL,
	seller_account TEXT,
	buyer_account  TEXT,
	current_stage  TEXT NOT NULL,
	status         TEXT NOT NULL,
	version        BIGINT NOT NULL,
	record         JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transfers_status_stage ON transfers (status, current_stage);
CREATE INDEX IF NOT EXISTS idx_transfers_seller ON transfers (seller_account);
CREATE INDEX IF NOT EXISTS idx_transfers_buyer ON transfers (buyer_account);

CREATE TABLE IF NOT EXISTS audit_events (
	id           UUID PRIMARY KEY,
	transfer_id  TEXT NOT NULL,
	seq          BIGINT NOT NULL,
	action       TEXT NOT NULL,
	performed_by TEXT,
	occurred_at  TIMESTAMPTZ NOT NULL,
	details      JSONB,
	origin       TEXT,
	request_id   TEXT,
	UNIQUE (transfer_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_audit_events_transfer ON audit_events (transfer_id, seq);
`

func applySchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
