package broadcast

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRate(t *testing.T) {
	assert.Equal(t, "0.184", DefaultRate.String())
}

func TestCostPolicy_Estimate(t *testing.T) {
	attempted, err := NewCostPolicy(DefaultRate, "nok", "")
	require.NoError(t, err)
	assert.Equal(t, CostBasisAttempted, attempted.Basis)
	assert.Equal(t, "0.37 NOK", attempted.Format(attempted.Estimate(2, 0)))
	assert.Equal(t, "1.84 NOK", attempted.Format(attempted.Estimate(10, 3)))

	sent, err := NewCostPolicy(DefaultRate, "NOK", "sent")
	require.NoError(t, err)
	assert.Equal(t, "0.55", sent.Estimate(10, 3).StringFixed(2))
	assert.True(t, sent.Estimate(10, 0).IsZero())
}

func TestCostPolicy_Invalid(t *testing.T) {
	_, err := NewCostPolicy(DefaultRate, "NOK", "successful")
	assert.Error(t, err)

	_, err = NewCostPolicy(decimal.NewFromInt(-1), "NOK", "attempted")
	assert.Error(t, err)
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"+47 912 34 567", "+4791234567", true},
		{"0047 91234567", "+4791234567", true},
		{"912 34 567", "+4791234567", true},
		{"(+46) 70-123 45 67", "+46701234567", true},
		{"+251 91 123 4567", "+251911234567", true},
		{"", "", false},
		{"12", "", false},
		{"+47 9123abc", "", false},
		{"+1234567890123456", "", false},
	}

	for _, tc := range cases {
		got, ok := NormalizePhone(tc.raw, "47")
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.want, got, tc.raw)
	}

	assert.Equal(t, "4791234567", Digits("+4791234567"))
}
