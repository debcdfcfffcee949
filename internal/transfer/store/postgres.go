package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bhulekh/internal/transfer/models"
	"bhulekh/internal/transfer/stage"
	id "bhulekh/pkg/domain"
	"bhulekh/pkg/platform/sentinel"
)

// Postgres persists the aggregate as a JSONB document with the query columns
// extracted for indexing. The version column carries the
// optimistic-concurrency token; every write predicates on it.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) Create(ctx context.Context, rec *models.TransferRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal transfer record: %w", err)
	}
	query := `
		INSERT INTO transfers (transfer_id, property_ref, seller_account, buyer_account,
			current_stage, status, version, record, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		string(rec.TransferID),
		string(rec.PropertyRef),
		nullable(rec.Seller.AccountRef),
		nullable(rec.Buyer.AccountRef),
		string(rec.CurrentStage),
		string(rec.Status),
		rec.Version,
		payload,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}
	return nil
}

func (s *Postgres) Get(ctx context.Context, transferID id.TransferID) (*models.TransferRecord, error) {
	query := `SELECT record, version FROM transfers WHERE transfer_id = $1`
	var (
		payload []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx, query, string(transferID)).Scan(&payload, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load transfer: %w", err)
	}
	rec, err := unmarshalRecord(payload, version)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Update writes the mutated aggregate. The WHERE clause holds both the key
// and the expected version; zero rows affected means either a concurrent
// writer won or the record vanished, distinguished with a follow-up lookup.
func (s *Postgres) Update(ctx context.Context, rec *models.TransferRecord) error {
	next := rec.Clone()
	next.Version = rec.Version + 1
	payload, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal transfer record: %w", err)
	}

	query := `
		UPDATE transfers
		SET seller_account = $3, buyer_account = $4, current_stage = $5,
			status = $6, version = $7, record = $8, updated_at = $9
		WHERE transfer_id = $1 AND version = $2
	`
	result, err := s.db.ExecContext(ctx, query,
		string(rec.TransferID),
		rec.Version,
		nullable(next.Seller.AccountRef),
		nullable(next.Buyer.AccountRef),
		string(next.CurrentStage),
		string(next.Status),
		next.Version,
		payload,
		next.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update transfer: %w", err)
	}
	if affected == 0 {
		var exists bool
		check := `SELECT EXISTS (SELECT 1 FROM transfers WHERE transfer_id = $1)`
		if err := s.db.QueryRowContext(ctx, check, string(rec.TransferID)).Scan(&exists); err != nil {
			return fmt.Errorf("update transfer: %w", err)
		}
		if !exists {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrVersionConflict
	}
	rec.Version = next.Version
	return nil
}

func (s *Postgres) FindByParty(ctx context.Context, accountRef string) ([]*models.TransferRecord, error) {
	if accountRef == "" {
		return nil, nil
	}
	query := `
		SELECT record, version FROM transfers
		WHERE seller_account = $1 OR buyer_account = $1
		ORDER BY created_at DESC
	`
	return s.queryRecords(ctx, query, accountRef)
}

func (s *Postgres) FindActiveAtStage(ctx context.Context, at stage.Stage) ([]*models.TransferRecord, error) {
	query := `
		SELECT record, version FROM transfers
		WHERE status = $1 AND current_stage = $2
		ORDER BY created_at
	`
	return s.queryRecords(ctx, query, string(models.StatusActive), string(at))
}

// AttachAnchorRef runs its own short compare-and-swap loop: receipt
// attachment must not fail just because a workflow write landed between the
// read and the write.
func (s *Postgres) AttachAnchorRef(ctx context.Context, transferID id.TransferID, milestone, txRef string, confirmedAt time.Time) error {
	const maxRetries = 3
	for attempt := 0; attempt < maxRetries; attempt++ {
		rec, err := s.Get(ctx, transferID)
		if err != nil {
			return err
		}
		rec.AttachAnchorRef(models.AnchorRef{Milestone: milestone, TxRef: txRef, ConfirmedAt: confirmedAt})
		err = s.Update(ctx, rec)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrVersionConflict) {
			return err
		}
	}
	return sentinel.ErrVersionConflict
}

func (s *Postgres) queryRecords(ctx context.Context, query string, args ...any) ([]*models.TransferRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transfers: %w", err)
	}
	defer rows.Close()

	var records []*models.TransferRecord
	for rows.Next() {
		var (
			payload []byte
			version int64
		)
		if err := rows.Scan(&payload, &version); err != nil {
			return nil, fmt.Errorf("scan transfer: %w", err)
		}
		rec, err := unmarshalRecord(payload, version)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func unmarshalRecord(payload []byte, version int64) (*models.TransferRecord, error) {
	var rec models.TransferRecord
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal transfer record: %w", err)
	}
	// The column is authoritative for the concurrency token.
	rec.Version = version
	return &rec, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
