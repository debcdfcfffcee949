package service

import (
	"context"
	"fmt"

	"bhulekh/internal/audit"
	"bhulekh/internal/transfer/models"
	id "bhulekh/pkg/domain"
	dErrors "bhulekh/pkg/domain-errors"
	"bhulekh/pkg/requestcontext"
)

// Reject ends the workflow in the rejected terminal state. A reason is
// mandatory: rejections are legal decisions and the trail must say why.
func (s *Service) Reject(ctx context.Context, transferID id.TransferID, reason string) (*models.TransferRecord, error) {
	return s.terminate(ctx, transferID, reason, models.StatusRejected)
}

// Cancel ends the workflow in the cancelled terminal state, typically at a
// party's request.
func (s *Service) Cancel(ctx context.Context, transferID id.TransferID, reason string) (*models.TransferRecord, error) {
	return s.terminate(ctx, transferID, reason, models.StatusCancelled)
}

func (s *Service) terminate(ctx context.Context, transferID id.TransferID, reason string, outcome models.Status) (*models.TransferRecord, error) {
	if reason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a termination reason is required")
	}
	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	origin := requestcontext.Origin(ctx)

	rec, err := s.load(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if err := rec.CanTerminate(); err != nil {
		return nil, err
	}

	action := audit.ActionTransferRejected
	subject := "Transfer rejected"
	atStage := rec.CurrentStage
	switch outcome {
	case models.StatusRejected:
		rec.ApplyRejection(actor, reason, now)
	case models.StatusCancelled:
		rec.ApplyCancellation(actor, reason, now)
		action = audit.ActionTransferCancelled
		subject = "Transfer cancelled"
	}
	rec.AppendAudit(newAuditEntry(action, actor, now,
		auditDetails("reason", reason, "at_stage", string(atStage)), origin))

	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		TransferID:  rec.TransferID,
		Action:      action,
		PerformedBy: actor,
		Timestamp:   now,
		Details:     auditDetails("reason", reason, "at_stage", string(atStage)),
	})
	s.notifyParties(ctx, rec, subject,
		fmt.Sprintf("Transfer %s was %s: %s", rec.TransferID, rec.Status, reason))

	if s.metrics != nil {
		s.metrics.Terminations.WithLabelValues(string(rec.Status)).Inc()
	}
	return rec, nil
}

// Hold suspends an active transfer as on_hold or disputed. The current stage
// is kept open; its clock keeps running until resume or termination.
func (s *Service) Hold(ctx context.Context, transferID id.TransferID, disputed bool, reason string) (*models.TransferRecord, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	origin := requestcontext.Origin(ctx)

	rec, err := s.load(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if err := rec.CanHold(); err != nil {
		return nil, err
	}

	status := models.StatusOnHold
	if disputed {
		status = models.StatusDisputed
	}
	rec.ApplyHold(status, now)
	rec.AppendAudit(newAuditEntry(audit.ActionTransferHeld, actor, now,
		auditDetails("status", string(status), "reason", reason), origin))

	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		TransferID:  rec.TransferID,
		Action:      audit.ActionTransferHeld,
		PerformedBy: actor,
		Timestamp:   now,
		Details:     auditDetails("status", string(status), "reason", reason),
	})
	return rec, nil
}

// Resume returns a held or disputed transfer to the active path.
func (s *Service) Resume(ctx context.Context, transferID id.TransferID) (*models.TransferRecord, error) {
	now := requestcontext.Now(ctx)
	actor := requestcontext.ActorID(ctx)
	origin := requestcontext.Origin(ctx)

	rec, err := s.load(ctx, transferID)
	if err != nil {
		return nil, err
	}
	if err := rec.CanResume(); err != nil {
		return nil, err
	}

	rec.ApplyResume(now)
	rec.AppendAudit(newAuditEntry(audit.ActionTransferResumed, actor, now, nil, origin))

	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		TransferID:  rec.TransferID,
		Action:      audit.ActionTransferResumed,
		PerformedBy: actor,
		Timestamp:   now,
	})
	return rec, nil
}

// RecordPayment marks one fee bucket paid with its receipt reference. Paying
// a bucket twice is rejected; receipts are evidence, not balances.
func (s *Service) RecordPayment(ctx context.Context, transferID id.TransferID, kind models.FeeKind, receiptRef string) (*models.TransferRecord, error) {
	if receiptRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "a payment receipt reference is required")
	}
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
	if err := rec.Financials.MarkPaid(kind, receiptRef, now); err != nil {
		return nil, err
	}
	rec.UpdatedAt = now
	rec.AppendAudit(newAuditEntry(audit.ActionPaymentRecorded, actor, now,
		auditDetails("fee", string(kind), "receipt_ref", receiptRef), origin))

	if err := s.save(ctx, rec); err != nil {
		return nil, err
	}

	s.emitAudit(ctx, audit.Event{
		TransferID:  rec.TransferID,
		Action:      audit.ActionPaymentRecorded,
		PerformedBy: actor,
		Timestamp:   now,
		Details:     auditDetails("fee", string(kind), "receipt_ref", receiptRef),
	})
	return rec, nil
}
