package service

import (
	"context"

	"bhulekh/internal/anchor"
	"bhulekh/internal/audit"
	"bhulekh/internal/transfer/fees"
	"bhulekh/internal/transfer/models"
	"bhulekh/internal/transfer/stage"
	id "bhulekh/pkg/domain"
	dErrors "bhulekh/pkg/domain-errors"
)

// Get returns one transfer by id.
func (s *Service) Get(ctx context.Context, transferID id.TransferID) (*models.TransferRecord, error) {
	return s.load(ctx, transferID)
}

// ListByParty returns every transfer where the account appears as seller or
// buyer, terminal ones included.
func (s *Service) ListByParty(ctx context.Context, accountRef string) ([]*models.TransferRecord, error) {
	if accountRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "account reference is required")
	}
	recs, err := s.store.FindByParty(ctx, accountRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list transfers by party")
	}
	return recs, nil
}

// ListPendingApprovals returns the active transfers sitting in the given
// role's review stage. The queue and the approval gate read the same role
// table, so a transfer shown here is by construction one the role can act on.
func (s *Service) ListPendingApprovals(ctx context.Context, rawRole string) ([]*models.TransferRecord, error) {
	role, ok := stage.ParseRole(rawRole)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown approver role %q", rawRole)
	}
	review, ok := stage.ReviewStage(role)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "role %s has no review stage", role)
	}
	recs, err := s.store.FindActiveAtStage(ctx, review)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list pending approvals")
	}
	return recs, nil
}

// CalculateFees produces a statutory fee quote without touching any record.
func (s *Service) CalculateFees(ctx context.Context, jurisdiction string, saleAmount, guidanceValue int64) (fees.Schedule, error) {
	if saleAmount < 0 || guidanceValue < 0 {
		return fees.Schedule{}, dErrors.New(dErrors.CodeValidation, "amounts must not be negative")
	}
	if saleAmount == 0 && guidanceValue == 0 {
		return fees.Schedule{}, dErrors.New(dErrors.CodeValidation, "a sale amount or guidance value is required")
	}
	return fees.Calculate(jurisdiction, saleAmount, guidanceValue), nil
}

// History is the full verification view of one transfer: the record itself,
// its event trail, and any ledger receipts known for the property.
type History struct {
	Record         *models.TransferRecord `json:"record"`
	Trail          []audit.Event          `json:"trail"`
	LedgerReceipts []anchor.Receipt       `json:"ledger_receipts,omitempty"`
}

// VerificationHistory assembles the record, its audit trail, and the
// external ledger's receipts for its property. Ledger reads are best effort;
// an outage degrades the view rather than failing it.
func (s *Service) VerificationHistory(ctx context.Context, transferID id.TransferID) (*History, error) {
	rec, err := s.load(ctx, transferID)
	if err != nil {
		return nil, err
	}

	h := &History{Record: rec}
	if s.audits != nil {
		trail, err := s.audits.List(ctx, string(transferID))
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load audit trail")
		}
		h.Trail = trail
	}
	if s.ledger != nil {
		receipts, err := s.ledger.TransferHistory(ctx, rec.PropertyRef)
		if err != nil {
			s.logger.WarnContext(ctx, "ledger history unavailable",
				"transfer_id", transferID,
				"property_ref", rec.PropertyRef,
				"error", err,
			)
		} else {
			h.LedgerReceipts = receipts
		}
	}
	return h, nil
}
