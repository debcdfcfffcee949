// Package anchor submits content hashes of transfer milestones to an
// external tamper-evident ledger. Anchoring is strictly best effort: a slow
// or unavailable ledger never blocks or fails a workflow operation. Failed
// submissions are queued and retried out of band; confirmed receipts are
// attached to the record when they eventually land.
package anchor

import (
	"context"
	"errors"
	"time"

	id "bhulekh/pkg/domain"
)

// ErrUnavailable marks a ledger outage. It is recovered locally by the
// dispatcher and never surfaces to workflow callers.
var ErrUnavailable = errors.New("anchor ledger unavailable")

// Milestone names what is being anchored.
type Milestone string

const (
	MilestoneInitiation Milestone = "initiation"
	MilestoneStage      Milestone = "stage_transition"
	MilestoneApproval   Milestone = "approval"
	MilestoneCompletion Milestone = "completion"
)

// Submission is one anchoring request.
type Submission struct {
	Milestone  Milestone         `json:"milestone"`
	TransferID id.TransferID     `json:"transfer_id"`
	DataHash   string            `json:"data_hash"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Attempts   int               `json:"attempts,omitempty"`
}

// Receipt is the ledger's acknowledgement.
type Receipt struct {
	TxRef       string    `json:"tx_ref"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}

// Anchorer is the narrow interface to the external ledger.
type Anchorer interface {
	Submit(ctx context.Context, sub Submission) (Receipt, error)
}

// HistoryReader covers the ledger's read paths, consumed for verification
// display only; workflow correctness never depends on them.
type HistoryReader interface {
	TransferHistory(ctx context.Context, propertyRef id.PropertyRef) ([]Receipt, error)
}
