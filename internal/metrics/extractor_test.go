package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/deal-analyzer/constants"
)

func TestExtract_PriceAndNOIDeriveCapRate(t *testing.T) {
	got := Extract("Asking price: $1,200,000. NOI: $84,000.")

	assert.Equal(t, []constants.Label{
		constants.AskingPrice,
		constants.NOI,
		constants.EstimatedCapRate,
		constants.EstimatedOpEx,
	}, got.Labels())

	v, _ := got.Get(constants.AskingPrice)
	assert.Equal(t, "$1,200,000.00", v)
	v, _ = got.Get(constants.NOI)
	assert.Equal(t, "$84,000.00", v)
	v, _ = got.Get(constants.EstimatedCapRate)
	assert.Equal(t, "7.00%", v)
	v, _ = got.Get(constants.EstimatedOpEx)
	assert.Equal(t, "$45,230.77", v)
}

func TestExtract_CapRateAndPriceDeriveNOI(t *testing.T) {
	got := Extract("Cap Rate: 6.50%. Asking price $500,000")

	v, ok := got.Get(constants.EstimatedNOI)
	require.True(t, ok)
	assert.Equal(t, "$32,500.00", v)

	v, _ = got.Get(constants.CapRate)
	assert.Equal(t, "6.50%", v)
	assert.False(t, got.Has(constants.EstimatedCapRate))
	assert.False(t, got.Has(constants.NOI))
	assert.False(t, got.Has(constants.EstimatedOpEx))
}

func TestExtract_OpExFromNOI(t *testing.T) {
	got := Extract("NOI: $100,000")

	v, ok := got.Get(constants.EstimatedOpEx)
	require.True(t, ok)
	assert.Equal(t, "$53,846.15", v)

	// the NOI figure also satisfies the price pattern
	v, _ = got.Get(constants.AskingPrice)
	assert.Equal(t, "$100,000.00", v)
}

func TestExtract_UnitsDeriveCapEx(t *testing.T) {
	got := Extract("24 units")

	assert.Equal(t, 2, got.Len())
	v, _ := got.Get(constants.Units)
	assert.Equal(t, "24", v)
	v, _ = got.Get(constants.EstimatedCapEx)
	assert.Equal(t, "$192,000.00", v)
}

func TestExtract_UnitsKeepsLiteralDigits(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"singular", "a 1 Unit cottage", "1"},
		{"leading zero", "007 units", "007"},
		{"upper case", "36 UNITS", "36"},
		{"longer number keeps last three digits", "1234 units", "234"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := Extract(tt.text).Get(constants.Units)
			require.True(t, ok)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestExtract_RentRoll(t *testing.T) {
	got := Extract("500 sqft @ $2.00, 300 sqft @ $1.50")

	v, _ := got.Get(constants.DetectedRentRollEntries)
	assert.Equal(t, "2", v)
	v, _ = got.Get(constants.EstimatedGrossMonthlyRent)
	assert.Equal(t, "$1,450.00", v)
	v, _ = got.Get(constants.EstimatedAnnualRent)
	assert.Equal(t, "$17,400.00", v)

	labels := got.Labels()
	assert.Equal(t, constants.EstimatedAnnualRent, labels[len(labels)-1])
}

func TestExtract_RentRollWithoutDollarSign(t *testing.T) {
	got := Extract("Suite A: 750 SQFT @ 1.2")

	v, _ := got.Get(constants.DetectedRentRollEntries)
	assert.Equal(t, "1", v)
	v, _ = got.Get(constants.EstimatedGrossMonthlyRent)
	assert.Equal(t, "$900.00", v)
	assert.False(t, got.Has(constants.AskingPrice))
}

func TestExtract_NothingToFind(t *testing.T) {
	for _, text := range []string{"", "no relevant numbers here", "Illinois 2024 report"} {
		got := Extract(text)
		assert.True(t, got.Empty(), "text %q", text)
	}
}

func TestExtract_DetectedCapRateWins(t *testing.T) {
	got := Extract("Offered at $1,000,000 with NOI = 70,000 and Cap Rate 6.5%")

	assert.False(t, got.Has(constants.EstimatedCapRate))
	assert.False(t, got.Has(constants.EstimatedNOI))
	v, _ := got.Get(constants.CapRate)
	assert.Equal(t, "6.50%", v)
	assert.True(t, got.Has(constants.EstimatedOpEx))
}

func TestExtract_UnparsableNOIStillBlocksEstimate(t *testing.T) {
	got := Extract("NOI: , Cap Rate: 5.00% Price $400,000")

	assert.False(t, got.Has(constants.NOI))
	assert.False(t, got.Has(constants.EstimatedNOI))
	v, _ := got.Get(constants.AskingPrice)
	assert.Equal(t, "$400,000.00", v)
}

func TestExtract_MalformedPriceIsOmitted(t *testing.T) {
	got := Extract("fee: $, NOI: $50,000")

	assert.False(t, got.Has(constants.AskingPrice))
	assert.False(t, got.Has(constants.EstimatedCapRate))
	v, _ := got.Get(constants.NOI)
	assert.Equal(t, "$50,000.00", v)
}

func TestExtract_ZeroPriceDerivesNothing(t *testing.T) {
	got := Extract("$0 NOI: 5,000")

	v, _ := got.Get(constants.AskingPrice)
	assert.Equal(t, "$0.00", v)
	assert.False(t, got.Has(constants.EstimatedCapRate))
	v, _ = got.Get(constants.EstimatedOpEx)
	assert.Equal(t, "$2,692.31", v)
}

func TestExtract_FirstMatchWins(t *testing.T) {
	got := Extract("Price $2,500,000.00 (was $3,000,000). 12 units plus 4 units. NOI 150,000 NOI 1")

	v, _ := got.Get(constants.AskingPrice)
	assert.Equal(t, "$2,500,000.00", v)
	v, _ = got.Get(constants.Units)
	assert.Equal(t, "12", v)
	v, _ = got.Get(constants.NOI)
	assert.Equal(t, "$150,000.00", v)
	v, _ = got.Get(constants.EstimatedCapRate)
	assert.Equal(t, "6.00%", v)
}

func TestExtract_Idempotent(t *testing.T) {
	text := "$900,000 asking, 10 units, NOI: $60,000, 400 sqft @ $1.25"
	assert.Equal(t, Extract(text), Extract(text))
}

func TestRentRoll(t *testing.T) {
	got := RentRoll("100 sqft @ $3.10\n20 sqft @ 4\nbogus 10 sqft at $2")
	require.Len(t, got, 2)
	assert.Equal(t, RentRollEntry{SqFt: 100, Rate: 3.10}, got[0])
	assert.Equal(t, RentRollEntry{SqFt: 20, Rate: 4}, got[1])
	assert.InDelta(t, 80.0, got[1].Monthly(), 1e-9)
}

func TestExtract_LargeAmountsKeepEveryDigit(t *testing.T) {
	got := Extract("Asking $10,000,000,000,000,000,000")
	v, _ := got.Get(constants.AskingPrice)
	assert.Equal(t, "$10,000,000,000,000,000,000.00", v)

	got = Extract("NOI: $100,000,000,000,000,000,000")
	v, _ = got.Get(constants.NOI)
	assert.Equal(t, "$100,000,000,000,000,000,000.00", v)
	v, _ = got.Get(constants.EstimatedOpEx)
	assert.Equal(t, "$53,846,153,846,153,838,592.00", v)
}

func TestExtract_UnicodeWhitespace(t *testing.T) {
	got := Extract("24\u00a0units")
	v, ok := got.Get(constants.Units)
	require.True(t, ok)
	assert.Equal(t, "24", v)

	got = Extract("NOI:\u00a0$100,000")
	v, ok = got.Get(constants.NOI)
	require.True(t, ok)
	assert.Equal(t, "$100,000.00", v)

	got = Extract("Cap Rate:\u00a06.50% $500,000")
	v, ok = got.Get(constants.CapRate)
	require.True(t, ok)
	assert.Equal(t, "6.50%", v)
	v, _ = got.Get(constants.EstimatedNOI)
	assert.Equal(t, "$32,500.00", v)

	got = Extract("500\u00a0sqft\u2009@\u3000$2.00")
	v, _ = got.Get(constants.DetectedRentRollEntries)
	assert.Equal(t, "1", v)
	v, _ = got.Get(constants.EstimatedGrossMonthlyRent)
	assert.Equal(t, "$1,000.00", v)

	got = Extract("Asking $\u202f750,000")
	v, _ = got.Get(constants.AskingPrice)
	assert.Equal(t, "$750,000.00", v)
}
