// Package store persists TransferRecord aggregates. Implementations provide
// point lookups, the party and pending-approval query surfaces, and
// version-checked writes for optimistic concurrency.
package store

import (
	"context"
	"time"

	"bhulekh/internal/transfer/models"
	"bhulekh/internal/transfer/stage"
	id "bhulekh/pkg/domain"
)

// Store is the persistence surface for transfer records. Returned records
// are private copies; callers mutate and write back through Update.
//
// Update compares the record's version against the stored one. On success
// the stored version and rec.Version advance by one; on mismatch it returns
// sentinel.ErrVersionConflict and callers re-read and retry.
type Store interface {
	Create(ctx context.Context, rec *models.TransferRecord) error
	Get(ctx context.Context, transferID id.TransferID) (*models.TransferRecord, error)
	Update(ctx context.Context, rec *models.TransferRecord) error

	// FindByParty returns transfers where the account is seller or buyer.
	FindByParty(ctx context.Context, accountRef string) ([]*models.TransferRecord, error)

	// FindActiveAtStage returns active transfers currently at the given
	// stage, backing the pending-approval queues.
	FindActiveAtStage(ctx context.Context, s stage.Stage) ([]*models.TransferRecord, error)

	// AttachAnchorRef appends a confirmed ledger receipt with its own
	// version-safe write, so the anchor dispatcher never races workflow
	// mutations.
	AttachAnchorRef(ctx context.Context, transferID id.TransferID, milestone, txRef string, confirmedAt time.Time) error
}
