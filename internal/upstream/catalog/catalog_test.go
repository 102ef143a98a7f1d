package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRawMarket_Outcomes_Decodes(t *testing.T) {
	m := RawMarket{OutcomesRaw: `["Yes","No"]`}
	assert.Equal(t, []string{"Yes", "No"}, m.Outcomes())
}

func TestRawMarket_Outcomes_FallsBackOnEmpty(t *testing.T) {
	m := RawMarket{OutcomesRaw: ""}
	assert.Equal(t, []string{"Yes", "No"}, m.Outcomes())
}

func TestRawMarket_Outcomes_FallsBackOnMalformed(t *testing.T) {
	m := RawMarket{OutcomesRaw: "not json"}
	assert.Equal(t, []string{"Yes", "No"}, m.Outcomes())
}

func TestRawMarket_OutcomePrices_Decodes(t *testing.T) {
	m := RawMarket{OutcomePricesRaw: `["0.35","0.65"]`}
	assert.Equal(t, []float64{0.35, 0.65}, m.OutcomePrices())
}

func TestRawMarket_OutcomePrices_FallsBackToEvenSplit(t *testing.T) {
	m := RawMarket{OutcomesRaw: `["Yes","No"]`}
	assert.Equal(t, []float64{0.5, 0.5}, m.OutcomePrices())
}

func TestRawMarket_OutcomePrices_FallsBackToEvenSplitOfDefaultOutcomes(t *testing.T) {
	m := RawMarket{}
	assert.Equal(t, []float64{0.5, 0.5}, m.OutcomePrices())
}

func TestRawMarket_ClobTokenIDs_Decodes(t *testing.T) {
	m := RawMarket{ClobTokenIds: `["111","222"]`}
	assert.Equal(t, []string{"111", "222"}, m.ClobTokenIDs())
}

func TestRawMarket_ClobTokenIDs_NilWhenUnparsable(t *testing.T) {
	m := RawMarket{ClobTokenIds: "garbage"}
	assert.Nil(t, m.ClobTokenIDs())
}

func TestDecodeStringArray_NullIsTreatedAsAbsent(t *testing.T) {
	v, ok := decodeStringArray("null")
	assert.False(t, ok)
	assert.Nil(t, v)
}

func TestParseFloatLenient_Basic(t *testing.T) {
	assert.InDelta(t, 0.42, parseFloatLenient("0.42"), 0.0001)
}

func TestParseFloatLenient_UnparsableYieldsZero(t *testing.T) {
	assert.Equal(t, 0.0, parseFloatLenient("nope"))
}
