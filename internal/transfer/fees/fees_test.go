package fees

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStampDuty(t *testing.T) {
	tests := []struct {
		name          string
		jurisdiction  string
		saleAmount    int64
		guidanceValue int64
		want          int64
	}{
		{"maharashtra on larger sale amount", "Maharashtra", 1_000_000, 900_000, 60_000},
		{"guidance value wins when larger", "Maharashtra", 800_000, 1_000_000, 60_000},
		{"karnataka rate", "Karnataka", 1_000_000, 0, 56_000},
		{"tamil nadu rate", "Tamil Nadu", 1_000_000, 0, 70_000},
		{"unknown jurisdiction uses default", "Goa", 1_000_000, 0, 60_000},
		{"rounds to nearest unit", "Karnataka", 1_009, 0, 57}, // 56.504
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StampDuty(tt.jurisdiction, tt.saleAmount, tt.guidanceValue))
		})
	}
}

func TestRegistrationFee(t *testing.T) {
	assert.Equal(t, int64(5_000), RegistrationFee(500_000, 0))
	assert.Equal(t, int64(30_000), RegistrationFee(10_000_000, 0), "fee is capped")
	assert.Equal(t, int64(9_000), RegistrationFee(500_000, 900_000), "uses dutiable value")
}

func TestCalculate(t *testing.T) {
	schedule := Calculate("Maharashtra", 1_000_000, 900_000)
	assert.Equal(t, int64(1_000_000), schedule.DutiableValue)
	assert.Equal(t, int64(60_000), schedule.StampDuty)
	assert.Equal(t, int64(10_000), schedule.RegistrationFee)
	assert.Equal(t, int64(1_000), schedule.MutationFee)
}
