// Package registry integrates the upstream property registry. The registry
// owns property records; this system reads them to validate a transfer and
// calls back once to mark the property transferred on completion.
package registry

import (
	"context"
	"time"

	id "bhulekh/pkg/domain"
)

// Property is the slice of the upstream record the workflow needs.
type Property struct {
	Ref            id.PropertyRef `json:"ref"`
	SurveyNumber   string         `json:"survey_number"`
	Jurisdiction   string         `json:"jurisdiction"`
	OwnerAccount   string         `json:"owner_account,omitempty"`
	GuidanceValue  int64          `json:"guidance_value,omitempty"`
	UnderTransfer  bool           `json:"under_transfer"`
	LastTransferAt *time.Time     `json:"last_transfer_at,omitempty"`
}

// Client is the read-plus-callback surface of the upstream registry.
type Client interface {
	Property(ctx context.Context, ref id.PropertyRef) (*Property, error)
	MarkTransferred(ctx context.Context, ref id.PropertyRef, transferID id.TransferID) error
}
