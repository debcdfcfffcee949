package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bhulekh/internal/anchor"
	"bhulekh/internal/audit"
	"bhulekh/internal/transfer/fees"
	"bhulekh/internal/transfer/models"
	"bhulekh/internal/transfer/stage"
	id "bhulekh/pkg/domain"
	dErrors "bhulekh/pkg/domain-errors"
	"bhulekh/pkg/platform/sentinel"
	"bhulekh/pkg/requestcontext"
)

// PartyInput carries one party's details at initiation. The raw national ID
// is digested immediately and never stored.
type PartyInput struct {
	Name         string
	Phone        string
	Email        string
	NationalID   string
	AccountRef   string
	ConsentGiven bool
}

// WitnessInput is one attesting witness.
type WitnessInput struct {
	Name          string
	Phone         string
	SignatureHash string
}

// InitiateParams is everything needed to open a transfer.
type InitiateParams struct {
	PropertyRef         id.PropertyRef
	TransferType        models.TransferType
	Seller              PartyInput
	Buyer               PartyInput
	Witnesses           []WitnessInput
	SaleAmount          int64
	MarketValue         int64
	GuidanceValue       int64
	Jurisdiction        string
	ExchangePropertyRef id.PropertyRef
}

// Initiate validates the request against the upstream property record,
// creates the record at the initiated stage, assesses the statutory fees,
// and anchors the initiation milestone.
func (s *Service) Initiate(ctx context.Context, params InitiateParams) (*models.TransferRecord, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	origin := requestcontext.Origin(ctx)

	if s.registry != nil {
		prop, err := s.registry.Property(ctx, params.PropertyRef)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.Newf(dErrors.CodeNotFound, "property %s not found", params.PropertyRef)
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify property")
		}
		if prop.UnderTransfer {
			return nil, dErrors.Newf(dErrors.CodeConflict,
				"property %s is already under transfer", params.PropertyRef)
		}
		if params.Jurisdiction == "" {
			params.Jurisdiction = prop.Jurisdiction
		}
		if params.GuidanceValue == 0 {
			params.GuidanceValue = prop.GuidanceValue
		}
	}

	seller, err := buildParty(params.Seller, now, origin)
	if err != nil {
		return nil, err
	}
	buyer, err := buildParty(params.Buyer, now, origin)
	if err != nil {
		return nil, err
	}

	rec, err := models.NewTransferRecord(
		id.NewTransferID(now.UnixMilli()),
		params.PropertyRef,
		params.TransferType,
		seller, buyer, now,
	)
	if err != nil {
		return nil, err
	}

	rec.SaleAmount = params.SaleAmount
	rec.MarketValue = params.MarketValue
	rec.GuidanceValue = params.GuidanceValue
	rec.Jurisdiction = params.Jurisdiction
	rec.ExchangePropertyRef = params.ExchangePropertyRef
	for _, w := range params.Witnesses {
		rec.Witnesses = append(rec.Witnesses, models.Witness{
			Name: w.Name, Phone: w.Phone, SignatureHash: w.SignatureHash,
		})
	}
	if err := rec.ValidateFinancialFields(); err != nil {
		return nil, err
	}

	schedule := fees.Calculate(rec.Jurisdiction, rec.SaleAmount, rec.GuidanceValue)
	rec.Financials.StampDuty.Amount = schedule.StampDuty
	rec.Financials.RegistrationFee.Amount = schedule.RegistrationFee
	rec.Financials.MutationFee.Amount = schedule.MutationFee

	rec.AppendAudit(newAuditEntry(audit.ActionTransferInitiated, actor, now,
		auditDetails("transfer_type", string(rec.TransferType), "property_ref", string(rec.PropertyRef)), origin))

	if err := s.store.Create(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create transfer")
	}

	s.emitAudit(ctx, audit.Event{
		TransferID:  rec.TransferID,
		Action:      audit.ActionTransferInitiated,
		PerformedBy: actor,
		Timestamp:   now,
		Details:     auditDetails("transfer_type", string(rec.TransferType)),
	})
	s.enqueueAnchor(rec, anchor.MilestoneInitiation, nil)
	s.notifyParties(ctx, rec, "Transfer initiated",
		fmt.Sprintf("Transfer %s for property %s has been initiated.", rec.TransferID, rec.PropertyRef))

	if s.metrics != nil {
		s.metrics.TransfersInitiated.Inc()
	}
	return rec, nil
}

// ApprovalInput is an official sign-off request.
type ApprovalInput struct {
	Stage            stage.ApprovalStage
	ApproverRole     stage.Role
	SignatureHash    string
	Remarks          string
	AttachmentHashes []string
}

// AdvanceStage moves the transfer to a declared successor stage, optionally
// recording an approval in the same write.
func (s *Service) AdvanceStage(ctx context.Context, transferID id.TransferID, target stage.Stage, approval *ApprovalInput) (*models.TransferRecord, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	origin := requestcontext.Origin(ctx)

	rec, err := s.load(ctx, transferID)
	if err != nil {
		return nil, err
	}

	if approval != nil {
		a, err := s.buildApproval(*approval, actor, now)
		if err != nil {
			return nil, err
		}
		rec.AddApproval(a)
	}

	if err := rec.CanAdvanceTo(target); err != nil {
		return nil, err
	}
	from := rec.CurrentStage
	rec.ApplyAdvance(target, now)
	rec.AppendAudit(newAuditEntry(audit.ActionStageAdvanced, actor, now,
		auditDetails("from", string(from), "to", string(target)), origin))

	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	completed := rec.Status == models.StatusCompleted

	s.emitAudit(ctx, audit.Event{
		TransferID:  rec.TransferID,
		Action:      audit.ActionStageAdvanced,
		PerformedBy: actor,
		Timestamp:   now,
		Details:     auditDetails("from", string(from), "to", string(target)),
	})
	milestone := anchor.MilestoneStage
	if completed {
		milestone = anchor.MilestoneCompletion
		s.emitAudit(ctx, audit.Event{
			TransferID:  rec.TransferID,
			Action:      audit.ActionTransferCompleted,
			PerformedBy: actor,
			Timestamp:   now,
		})
	}
	s.enqueueAnchor(rec, milestone, map[string]string{"from": string(from), "to": string(target)})
	s.notifyParties(ctx, rec, "Transfer updated",
		fmt.Sprintf("Transfer %s moved to stage %s.", rec.TransferID, target))

	if s.metrics != nil {
		s.metrics.StageTransitions.WithLabelValues(string(target)).Inc()
		if completed {
			s.metrics.TransfersCompleted.Inc()
		}
	}

	if completed && s.registry != nil {
		// Best effort: completion stands even if the upstream callback
		// fails; operators reconcile from the audit trail.
		if err := s.registry.MarkTransferred(ctx, rec.PropertyRef, rec.TransferID); err != nil {
			s.logger.ErrorContext(ctx, "failed to mark property transferred",
				"transfer_id", rec.TransferID,
				"property_ref", rec.PropertyRef,
				"error", err,
			)
		}
	}
	return rec, nil
}

// AddApproval appends an official sign-off to the approval ledger. The
// ledger is append-only; duplicates are recorded as distinct evidentiary
// entries and each is audited separately.
func (s *Service) AddApproval(ctx context.Context, transferID id.TransferID, input ApprovalInput) (*models.TransferRecord, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	origin := requestcontext.Origin(ctx)

	rec, err := s.load(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if err := rec.EnsureMutable(); err != nil {
		return nil, err
	}

	a, err := s.buildApproval(input, actor, now)
	if err != nil {
		return nil, err
	}
	rec.AddApproval(a)
	rec.AppendAudit(newAuditEntry(audit.ActionApprovalRecorded, actor, now,
		auditDetails("stage", string(a.Stage), "role", string(a.ApproverRole)), origin))

	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		TransferID:  rec.TransferID,
		Action:      audit.ActionApprovalRecorded,
		PerformedBy: actor,
		Timestamp:   now,
		Details:     auditDetails("stage", string(a.Stage), "role", string(a.ApproverRole)),
	})
	s.enqueueAnchor(rec, anchor.MilestoneApproval, map[string]string{"approval_stage": string(a.Stage)})

	if s.metrics != nil {
		s.metrics.ApprovalsRecorded.WithLabelValues(string(a.ApproverRole)).Inc()
	}
	return rec, nil
}

// buildApproval validates the sign-off against the shared role table. For
// labels inside the gating table the asserted role must match; unmapped
// labels are evidence-only and carry whatever role was asserted.
func (s *Service) buildApproval(input ApprovalInput, actor string, now time.Time) (models.Approval, error) {
	if input.Stage == "" {
		return models.Approval{}, dErrors.New(dErrors.CodeValidation, "approval stage is required")
	}
	if mapped, ok := stage.RoleForApproval(input.Stage); ok {
		if input.ApproverRole != mapped {
			return models.Approval{}, dErrors.Newf(dErrors.CodeUnauthorized,
				"approval %s requires the %s role", input.Stage, mapped)
		}
	}
	return models.Approval{
		Stage:            input.Stage,
		ApprovedBy:       actor,
		ApproverRole:     input.ApproverRole,
		SignatureHash:    input.SignatureHash,
		Timestamp:        now,
		Remarks:          input.Remarks,
		AttachmentHashes: input.AttachmentHashes,
	}, nil
}

// buildParty digests the raw national ID before it ever reaches the record.
func buildParty(input PartyInput, now time.Time, origin string) (models.Party, error) {
	digest, err := models.DigestNationalID(input.NationalID)
	if err != nil {
		return models.Party{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to digest national id")
	}
	consent := models.Consent{Given: input.ConsentGiven}
	if input.ConsentGiven {
		consent.Timestamp = now
		consent.Origin = origin
	}
	return models.Party{
		Name:             input.Name,
		Phone:            input.Phone,
		Email:            input.Email,
		NationalIDDigest: digest,
		AccountRef:       input.AccountRef,
		Consent:          consent,
	}, nil
}
