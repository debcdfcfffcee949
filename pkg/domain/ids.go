// Package domain holds the typed identifiers shared across packages. Distinct
// types keep a party reference from ever being passed where a transfer
// identifier is expected; the compiler enforces the distinction.
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	dErrors "bhulekh/pkg/domain-errors"
)

// TransferID is the human-readable identifier assigned to a transfer at
// creation. Format: TRF-<unix-ms>-<8 hex chars>. Immutable once assigned.
type TransferID string

// PropertyRef points at the upstream property record. Owned externally; this
// system only reads it.
type PropertyRef string

// ActorID identifies the user or official performing an action. Backed by a
// UUID from the excluded account system.
type ActorID uuid.UUID

func (id ActorID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the actor ID is the zero UUID.
func (id ActorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewTransferID mints a transfer identifier from a timestamp in unix
// milliseconds and a random suffix.
func NewTransferID(unixMilli int64) TransferID {
	suffix := uuid.NewString()[:8]
	return TransferID(fmt.Sprintf("TRF-%d-%s", unixMilli, suffix))
}

// ParseTransferID validates the identifier shape at trust boundaries.
func ParseTransferID(raw string) (TransferID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "transfer id cannot be empty")
	}
	if !strings.HasPrefix(raw, "TRF-") {
		return "", dErrors.New(dErrors.CodeBadRequest, "malformed transfer id")
	}
	return TransferID(raw), nil
}

// ParseActorID parses and validates an actor UUID.
func ParseActorID(raw string) (ActorID, error) {
	if raw == "" {
		return ActorID{}, dErrors.New(dErrors.CodeBadRequest, "actor id cannot be empty")
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return ActorID{}, dErrors.New(dErrors.CodeBadRequest, "actor id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return ActorID{}, dErrors.New(dErrors.CodeBadRequest, "actor id cannot be the nil UUID")
	}
	return ActorID(parsed), nil
}

// ParsePropertyRef validates a property reference.
func ParsePropertyRef(raw string) (PropertyRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "property reference cannot be empty")
	}
	return PropertyRef(raw), nil
}
