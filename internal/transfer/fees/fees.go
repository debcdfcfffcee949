// Package fees computes the statutory charges on a transfer. Everything here
// is pure: callers decide when to write results into the record's financials.
package fees

import "math"

// Ad-valorem stamp duty rates by jurisdiction. Unlisted jurisdictions fall
// back to the default rate.
var stampDutyRates = map[string]float64{
	"Maharashtra": 0.06,
	"Karnataka":   0.056,
	"Tamil Nadu":  0.07,
}

const defaultStampDutyRate = 0.06

// Registration fee is ad valorem with a statutory cap; mutation fee is flat.
const (
	registrationFeeRate = 0.01
	registrationFeeCap  = 30000
	mutationFeeFlat     = 1000
)

// DutiableValue is the base for ad-valorem charges: the greater of the sale
// amount and the government guidance value.
func DutiableValue(saleAmount, guidanceValue int64) int64 {
	if guidanceValue > saleAmount {
		return guidanceValue
	}
	return saleAmount
}

// StampDuty applies the jurisdiction's rate to the dutiable value, rounded to
// the nearest whole currency unit.
func StampDuty(jurisdiction string, saleAmount, guidanceValue int64) int64 {
	rate, ok := stampDutyRates[jurisdiction]
	if !ok {
		rate = defaultStampDutyRate
	}
	return int64(math.Round(float64(DutiableValue(saleAmount, guidanceValue)) * rate))
}

// RegistrationFee is 1% of the dutiable value, capped.
func RegistrationFee(saleAmount, guidanceValue int64) int64 {
	fee := int64(math.Round(float64(DutiableValue(saleAmount, guidanceValue)) * registrationFeeRate))
	if fee > registrationFeeCap {
		return registrationFeeCap
	}
	return fee
}

// MutationFee is a flat charge for the revenue-record update.
func MutationFee() int64 { return mutationFeeFlat }

// Schedule is a full fee proposal for a transfer.
type Schedule struct {
	Jurisdiction    string `json:"jurisdiction"`
	DutiableValue   int64  `json:"dutiable_value"`
	StampDuty       int64  `json:"stamp_duty"`
	RegistrationFee int64  `json:"registration_fee"`
	MutationFee     int64  `json:"mutation_fee"`
}

// Calculate assembles the complete schedule.
func Calculate(jurisdiction string, saleAmount, guidanceValue int64) Schedule {
	return Schedule{
		Jurisdiction:    jurisdiction,
		DutiableValue:   DutiableValue(saleAmount, guidanceValue),
		StampDuty:       StampDuty(jurisdiction, saleAmount, guidanceValue),
		RegistrationFee: RegistrationFee(saleAmount, guidanceValue),
		MutationFee:     MutationFee(),
	}
}
