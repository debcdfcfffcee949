// Package audit records every mutating action taken against a transfer.
// Events form an independent append-only stream keyed by transfer id with a
// per-transfer sequence assigned by the store, so concurrency is per event
// append rather than whole-record contention.
package audit

import (
	"time"

	id "bhulekh/pkg/domain"
)

// Action names a mutating operation for the trail.
type Action string

const (
	ActionTransferInitiated Action = "transfer_initiated"
	ActionStageAdvanced     Action = "stage_advanced"
	ActionApprovalRecorded  Action = "approval_recorded"
	ActionPaymentRecorded   Action = "payment_recorded"
	ActionTransferRejected  Action = "transfer_rejected"
	ActionTransferCancelled Action = "transfer_cancelled"
	ActionTransferHeld      Action = "transfer_held"
	ActionTransferResumed   Action = "transfer_resumed"
	ActionTransferCompleted Action = "transfer_completed"
	ActionAnchorConfirmed   Action = "anchor_confirmed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	TransferID  id.TransferID     `json:"transfer_id"`
	Seq         int64             `json:"seq"` // assigned by the store on append
	Action      Action            `json:"action"`
	PerformedBy string            `json:"performed_by,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	Details     map[string]string `json:"details,omitempty"`
	Origin      string            `json:"origin,omitempty"`
	RequestID   string            `json:"request_id,omitempty"`
}
