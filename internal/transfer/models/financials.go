package models

import (
	"time"

	dErrors "bhulekh/pkg/domain-errors"
)

// FeeBucket is one statutory charge: its assessed amount and payment
// evidence. Amounts are whole currency units.
type FeeBucket struct {
	Amount     int64      `json:"amount"`
	Paid       bool       `json:"paid"`
	PaidAt     *time.Time `json:"paid_at,omitempty"`
	ReceiptRef string     `json:"receipt_ref,omitempty"`
}

// Financials groups the three statutory fee buckets.
type Financials struct {
	StampDuty       FeeBucket `json:"stamp_duty"`
	RegistrationFee FeeBucket `json:"registration_fee"`
	MutationFee     FeeBucket `json:"mutation_fee"`
}

// FeeKind names a bucket for payment recording.
type FeeKind string

const (
	FeeStampDuty       FeeKind = "stamp_duty"
	FeeRegistrationFee FeeKind = "registration_fee"
	FeeMutationFee     FeeKind = "mutation_fee"
)

// Bucket returns the addressed bucket.
func (f *Financials) Bucket(kind FeeKind) (*FeeBucket, error) {
	switch kind {
	case FeeStampDuty:
		return &f.StampDuty, nil
	case FeeRegistrationFee:
		return &f.RegistrationFee, nil
	case FeeMutationFee:
		return &f.MutationFee, nil
	default:
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown fee bucket %q", kind)
	}
}

// MarkPaid records payment evidence on a bucket. Paying an already-paid
// bucket is rejected so receipts cannot be silently replaced.
func (f *Financials) MarkPaid(kind FeeKind, receiptRef string, now time.Time) error {
	bucket, err := f.Bucket(kind)
	if err != nil {
		return err
	}
	if bucket.Paid {
		return dErrors.Newf(dErrors.CodeValidation, "%s is already paid", kind)
	}
	paid := now
	bucket.Paid = true
	bucket.PaidAt = &paid
	bucket.ReceiptRef = receiptRef
	return nil
}

func (f Financials) clone() Financials {
	copied := f
	if f.StampDuty.PaidAt != nil {
		at := *f.StampDuty.PaidAt
		copied.StampDuty.PaidAt = &at
	}
	if f.RegistrationFee.PaidAt != nil {
		at := *f.RegistrationFee.PaidAt
		copied.RegistrationFee.PaidAt = &at
	}
	if f.MutationFee.PaidAt != nil {
		at := *f.MutationFee.PaidAt
		copied.MutationFee.PaidAt = &at
	}
	return copied
}
