// Package models holds the TransferRecord aggregate and its invariants.
//
// Mutation happens only through the Can*/Apply* pairs below so the service
// layer can validate inside a load-mutate-save cycle and tests can exercise
// each rule in isolation.
package models

import (
	"time"

	"bhulekh/internal/transfer/stage"
	id "bhulekh/pkg/domain"
	dErrors "bhulekh/pkg/domain-errors"
)

// Status is the lifecycle state of a transfer. completed, cancelled, and
// rejected are terminal: no further stage mutation is permitted.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusRejected  Status = "rejected"
	StatusOnHold    Status = "on_hold"
	StatusDisputed  Status = "disputed"
)

// IsTerminal reports whether no further mutation is permitted.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusRejected
}

// TransferType classifies the legal nature of the transfer.
type TransferType string

const (
	TypeSale        TransferType = "sale"
	TypeGift        TransferType = "gift"
	TypeInheritance TransferType = "inheritance"
	TypePartition   TransferType = "partition"
	TypeExchange    TransferType = "exchange"
	TypeLease       TransferType = "lease"
)

var validTypes = map[TransferType]bool{
	TypeSale: true, TypeGift: true, TypeInheritance: true,
	TypePartition: true, TypeExchange: true, TypeLease: true,
}

// StageHistoryEntry records one visit to a stage.
//
// Invariant: while Status is active, exactly one entry has a nil ExitedAt,
// and its Stage equals CurrentStage.
type StageHistoryEntry struct {
	Stage     stage.Stage   `json:"stage"`
	EnteredAt time.Time     `json:"entered_at"`
	ExitedAt  *time.Time    `json:"exited_at,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
}

// Approval is an immutable evidentiary record of an official sign-off.
// Approvals are append-only; duplicates append distinct entries.
type Approval struct {
	Stage            stage.ApprovalStage `json:"stage"`
	ApprovedBy       string              `json:"approved_by"`
	ApproverRole     stage.Role          `json:"approver_role"`
	SignatureHash    string              `json:"signature_hash,omitempty"`
	Timestamp        time.Time           `json:"timestamp"`
	Remarks          string              `json:"remarks,omitempty"`
	AttachmentHashes []string            `json:"attachment_hashes,omitempty"`
	AnchorTxRef      string              `json:"anchor_tx_ref,omitempty"`
}

// RequiredApproval tracks whether a mandated role has signed off.
// Completed latches true only as a side effect of an approval being appended.
type RequiredApproval struct {
	Required    bool       `json:"required"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Termination records who ended the workflow, why, and where it stood.
type Termination struct {
	By        string      `json:"by"`
	Reason    string      `json:"reason"`
	AtStage   stage.Stage `json:"at_stage"`
	Timestamp time.Time   `json:"timestamp"`
}

// AuditEntry is one append-only line in the record's trail.
type AuditEntry struct {
	Action      string            `json:"action"`
	PerformedBy string            `json:"performed_by"`
	Timestamp   time.Time         `json:"timestamp"`
	Details     map[string]string `json:"details,omitempty"`
	Origin      string            `json:"origin,omitempty"`
}

// AnchorRef is a confirmed external-ledger receipt for a milestone.
type AnchorRef struct {
	Milestone   string    `json:"milestone"`
	TxRef       string    `json:"tx_ref"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// TransferRecord is the aggregate root for one property transfer.
type TransferRecord struct {
	TransferID  id.TransferID  `json:"transfer_id"`
	PropertyRef id.PropertyRef `json:"property_ref"`

	Seller    Party     `json:"seller"`
	Buyer     Party     `json:"buyer"`
	Witnesses []Witness `json:"witnesses,omitempty"`

	TransferType        TransferType   `json:"transfer_type"`
	SaleAmount          int64          `json:"sale_amount,omitempty"`
	MarketValue         int64          `json:"market_value,omitempty"`
	GuidanceValue       int64          `json:"guidance_value,omitempty"`
	ExchangePropertyRef id.PropertyRef `json:"exchange_property_ref,omitempty"`
	Jurisdiction        string         `json:"jurisdiction,omitempty"`

	Financials Financials `json:"financials"`

	CurrentStage stage.Stage         `json:"current_stage"`
	StageHistory []StageHistoryEntry `json:"stage_history"`

	Approvals         []Approval                       `json:"approvals,omitempty"`
	RequiredApprovals map[stage.Role]*RequiredApproval `json:"required_approvals"`

	Status       Status       `json:"status"`
	Rejection    *Termination `json:"rejection,omitempty"`
	Cancellation *Termination `json:"cancellation,omitempty"`

	AuditLog   []AuditEntry `json:"audit_log,omitempty"`
	AnchorRefs []AnchorRef  `json:"anchor_refs,omitempty"`

	// Version is the optimistic-concurrency token; stores reject writes
	// whose version does not match the stored record.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewTransferRecord validates the creation invariants and opens the record at
// the initiated stage.
func NewTransferRecord(transferID id.TransferID, propertyRef id.PropertyRef, transferType TransferType, seller, buyer Party, now time.Time) (*TransferRecord, error) {
	if transferID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "transfer id is required")
	}
	if propertyRef == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "property reference is required")
	}
	if !validTypes[transferType] {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown transfer type %q", transferType)
	}
	if err := seller.validate("seller"); err != nil {
		return nil, err
	}
	if err := buyer.validate("buyer"); err != nil {
		return nil, err
	}

	required := make(map[stage.Role]*RequiredApproval, 3)
	for _, role := range stage.RequiredRoles() {
		required[role] = &RequiredApproval{Required: true}
	}

	return &TransferRecord{
		TransferID:        transferID,
		PropertyRef:       propertyRef,
		Seller:            seller,
		Buyer:             buyer,
		TransferType:      transferType,
		CurrentStage:      stage.Initiated,
		StageHistory:      []StageHistoryEntry{{Stage: stage.Initiated, EnteredAt: now}},
		RequiredApprovals: required,
		Status:            StatusActive,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// ValidateFinancialFields enforces the sale-amount rule: required if and only
// if the transfer is a sale.
func (r *TransferRecord) ValidateFinancialFields() error {
	if r.TransferType == TypeSale && r.SaleAmount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "sale amount is required for sale transfers")
	}
	if r.TransferType != TypeSale && r.SaleAmount != 0 {
		return dErrors.Newf(dErrors.CodeValidation, "sale amount must not be set for %s transfers", r.TransferType)
	}
	if r.TransferType == TypeExchange && r.ExchangePropertyRef == "" {
		return dErrors.New(dErrors.CodeValidation, "exchange transfers require the counterpart property reference")
	}
	return nil
}

// EnsureMutable rejects mutation of terminal records. Every operation calls
// it first so terminal re-entry always fails rather than silently no-opping.
func (r *TransferRecord) EnsureMutable() error {
	if r.Status.IsTerminal() {
		return dErrors.Newf(dErrors.CodeTerminalState,
			"transfer %s is %s and cannot be modified", r.TransferID, r.Status)
	}
	return nil
}

// openStageEntry returns the single open stage-history entry, or nil when the
// record has been closed out.
func (r *TransferRecord) openStageEntry() *StageHistoryEntry {
	for i := range r.StageHistory {
		if r.StageHistory[i].ExitedAt == nil {
			return &r.StageHistory[i]
		}
	}
	return nil
}

// WitnessesReady reports whether the agreement witness rule is met: at least
// two witnesses with non-empty names.
func (r *TransferRecord) WitnessesReady() bool {
	count := 0
	for _, w := range r.Witnesses {
		if w.Name != "" {
			count++
		}
	}
	return count >= 2
}

// ConsentsGiven reports whether both parties have consented.
func (r *TransferRecord) ConsentsGiven() bool {
	return r.Seller.Consent.Given && r.Buyer.Consent.Given
}

// IsReadyForStage reports whether all gating requirements for target are
// currently satisfied, without checking adjacency. Callers use it to probe a
// gated transition before attempting it.
func (r *TransferRecord) IsReadyForStage(target stage.Stage) bool {
	return r.gateError(target) == nil
}

func (r *TransferRecord) gateError(target stage.Stage) error {
	switch target {
	case stage.AgreementSigned:
		if !r.WitnessesReady() {
			return dErrors.New(dErrors.CodeInvalidTransition,
				"agreement requires at least two named witnesses")
		}
		if !r.ConsentsGiven() {
			return dErrors.New(dErrors.CodeInvalidTransition,
				"agreement requires consent from both parties")
		}
	case stage.StampDutyPaid:
		if !r.Financials.StampDuty.Paid {
			return dErrors.New(dErrors.CodeInvalidTransition,
				"stamp duty must be paid before entering stamp_duty_paid")
		}
	}
	if role, gated := stage.GatingRole(target); gated {
		req := r.RequiredApprovals[role]
		if req == nil || !req.Completed {
			return dErrors.Newf(dErrors.CodeInvalidTransition,
				"stage %s requires a completed %s approval", target, role)
		}
	}
	return nil
}

// CanAdvanceTo validates status, adjacency, and gating for a forward
// transition.
func (r *TransferRecord) CanAdvanceTo(target stage.Stage) error {
	if err := r.EnsureMutable(); err != nil {
		return err
	}
	if r.Status != StatusActive {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"transfer %s is %s; resume it before advancing", r.TransferID, r.Status)
	}
	if !stage.Valid(target) {
		return dErrors.Newf(dErrors.CodeInvalidTransition, "unknown stage %q", target)
	}
	if !stage.CanFollow(r.CurrentStage, target) {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"cannot move from %s to %s", r.CurrentStage, target)
	}
	return r.gateError(target)
}

// ApplyAdvance closes the open history entry and opens one for target. Call
// CanAdvanceTo first. Entering transfer_complete completes the record.
func (r *TransferRecord) ApplyAdvance(target stage.Stage, now time.Time) {
	if open := r.openStageEntry(); open != nil {
		exited := now
		open.ExitedAt = &exited
		open.Duration = exited.Sub(open.EnteredAt)
	}
	r.StageHistory = append(r.StageHistory, StageHistoryEntry{Stage: target, EnteredAt: now})
	r.CurrentStage = target
	r.UpdatedAt = now

	if target == stage.TransferComplete {
		r.Status = StatusCompleted
		if open := r.openStageEntry(); open != nil {
			exited := now
			open.ExitedAt = &exited
			open.Duration = 0
		}
	}
}

// AddApproval appends to the approval ledger and latches the matching
// required-approval flag. Approvals outside the gating table are recorded but
// never affect gating. The ledger is append-only: duplicates create distinct
// entries and Completed never unlatches.
func (r *TransferRecord) AddApproval(a Approval) {
	r.Approvals = append(r.Approvals, a)
	if role, ok := stage.RoleForApproval(a.Stage); ok {
		req := r.RequiredApprovals[role]
		if req == nil {
			req = &RequiredApproval{Required: true}
			r.RequiredApprovals[role] = req
		}
		if !req.Completed {
			completed := a.Timestamp
			req.Completed = true
			req.CompletedAt = &completed
		}
	}
	r.UpdatedAt = a.Timestamp
}

// CanTerminate validates a reject or cancel request. Terminal operations are
// callable while the record is active, on hold, or disputed.
func (r *TransferRecord) CanTerminate() error {
	return r.EnsureMutable()
}

// ApplyRejection moves the record to the rejected terminal state.
func (r *TransferRecord) ApplyRejection(by, reason string, now time.Time) {
	r.Rejection = &Termination{By: by, Reason: reason, AtStage: r.CurrentStage, Timestamp: now}
	r.terminate(StatusRejected, now)
}

// ApplyCancellation moves the record to the cancelled terminal state.
func (r *TransferRecord) ApplyCancellation(by, reason string, now time.Time) {
	r.Cancellation = &Termination{By: by, Reason: reason, AtStage: r.CurrentStage, Timestamp: now}
	r.terminate(StatusCancelled, now)
}

func (r *TransferRecord) terminate(status Status, now time.Time) {
	if open := r.openStageEntry(); open != nil {
		exited := now
		open.ExitedAt = &exited
		open.Duration = exited.Sub(open.EnteredAt)
	}
	r.Status = status
	r.UpdatedAt = now
}

// CanHold validates moving an active record off the active path.
func (r *TransferRecord) CanHold() error {
	if err := r.EnsureMutable(); err != nil {
		return err
	}
	if r.Status != StatusActive {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"transfer %s is already %s", r.TransferID, r.Status)
	}
	return nil
}

// ApplyHold suspends the workflow without closing the open stage entry; the
// clock keeps running on the current stage.
func (r *TransferRecord) ApplyHold(status Status, now time.Time) {
	r.Status = status
	r.UpdatedAt = now
}

// CanResume validates returning a held or disputed record to active.
func (r *TransferRecord) CanResume() error {
	if err := r.EnsureMutable(); err != nil {
		return err
	}
	if r.Status != StatusOnHold && r.Status != StatusDisputed {
		return dErrors.Newf(dErrors.CodeInvalidTransition,
			"transfer %s is %s, not held or disputed", r.TransferID, r.Status)
	}
	return nil
}

// ApplyResume returns the record to the active path.
func (r *TransferRecord) ApplyResume(now time.Time) {
	r.Status = StatusActive
	r.UpdatedAt = now
}

// AppendAudit adds one append-only trail entry.
func (r *TransferRecord) AppendAudit(entry AuditEntry) {
	r.AuditLog = append(r.AuditLog, entry)
}

// AttachAnchorRef records a confirmed ledger receipt for a milestone.
func (r *TransferRecord) AttachAnchorRef(ref AnchorRef) {
	r.AnchorRefs = append(r.AnchorRefs, ref)
}

// CheckStageInvariant verifies the open-entry invariant. Stores assert it in
// tests; it is not called on hot paths.
func (r *TransferRecord) CheckStageInvariant() error {
	open := 0
	for _, entry := range r.StageHistory {
		if entry.ExitedAt == nil {
			open++
			if entry.Stage != r.CurrentStage {
				return dErrors.Newf(dErrors.CodeInternal,
					"open stage entry %s does not match current stage %s", entry.Stage, r.CurrentStage)
			}
		}
	}
	if r.Status == StatusActive && open != 1 {
		return dErrors.Newf(dErrors.CodeInternal,
			"active transfer must have exactly one open stage entry, found %d", open)
	}
	return nil
}

// Clone deep-copies the record so in-memory stores never hand out aliased
// slices or maps.
func (r *TransferRecord) Clone() *TransferRecord {
	clone := *r

	clone.Witnesses = append([]Witness(nil), r.Witnesses...)
	clone.Approvals = make([]Approval, len(r.Approvals))
	for i, a := range r.Approvals {
		clone.Approvals[i] = a
		clone.Approvals[i].AttachmentHashes = append([]string(nil), a.AttachmentHashes...)
	}
	clone.StageHistory = make([]StageHistoryEntry, len(r.StageHistory))
	for i, entry := range r.StageHistory {
		clone.StageHistory[i] = entry
		if entry.ExitedAt != nil {
			exited := *entry.ExitedAt
			clone.StageHistory[i].ExitedAt = &exited
		}
	}
	clone.RequiredApprovals = make(map[stage.Role]*RequiredApproval, len(r.RequiredApprovals))
	for role, req := range r.RequiredApprovals {
		copied := *req
		if req.CompletedAt != nil {
			at := *req.CompletedAt
			copied.CompletedAt = &at
		}
		clone.RequiredApprovals[role] = &copied
	}
	clone.AuditLog = make([]AuditEntry, len(r.AuditLog))
	for i, entry := range r.AuditLog {
		clone.AuditLog[i] = entry
		if entry.Details != nil {
			details := make(map[string]string, len(entry.Details))
			for k, v := range entry.Details {
				details[k] = v
			}
			clone.AuditLog[i].Details = details
		}
	}
	clone.AnchorRefs = append([]AnchorRef(nil), r.AnchorRefs...)
	if r.Rejection != nil {
		rej := *r.Rejection
		clone.Rejection = &rej
	}
	if r.Cancellation != nil {
		can := *r.Cancellation
		clone.Cancellation = &can
	}
	clone.Financials = r.Financials.clone()
	return &clone
}
