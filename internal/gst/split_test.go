package gst

import (
	"testing"

	"invoicekit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 0.13, Round(0.125))
	assert.Equal(t, 0.12, Round(0.1249))
	assert.Equal(t, 60.0, Round(60.0))
	assert.Equal(t, 0.0, Round(0))
}

func TestSplit_IntraState(t *testing.T) {
	// Same seller and buyer state: tax split into equal CGST and SGST halves.
	b, err := Split(1000, 12, "27", "27")
	require.NoError(t, err)

	assert.True(t, b.IntraState)
	assert.Equal(t, 60.0, b.CGST)
	assert.Equal(t, 60.0, b.SGST)
	assert.Equal(t, 0.0, b.IGST)
	assert.Equal(t, 120.0, b.TotalTax)
}

func TestSplit_InterState(t *testing.T) {
	b, err := Split(1000, 5, "27", "07")
	require.NoError(t, err)

	assert.False(t, b.IntraState)
	assert.Equal(t, 0.0, b.CGST)
	assert.Equal(t, 0.0, b.SGST)
	assert.Equal(t, 50.0, b.IGST)
	assert.Equal(t, 50.0, b.TotalTax)
}

func TestSplit_RoundingResidualFoldedIntoCGST(t *testing.T) {
	// 100.10 at 5%: total tax 5.01 but each half rounds to 2.50, leaving a
	// one paisa residual that lands in CGST.
	b, err := Split(100.10, 5, "27", "27")
	require.NoError(t, err)

	assert.Equal(t, 2.51, b.CGST)
	assert.Equal(t, 2.50, b.SGST)
	assert.Equal(t, 5.01, b.TotalTax)
	assert.Equal(t, b.TotalTax, Round(b.CGST+b.SGST+b.IGST))
}

func TestSplit_ComponentsAlwaysSumToTotal(t *testing.T) {
	amounts := []float64{0.01, 0.99, 10.55, 100.10, 999.99, 12345.67}
	rates := []float64{0, 0.25, 3, 5, 12, 18, 28}

	for _, amt := range amounts {
		for _, rate := range rates {
			b, err := Split(amt, rate, "27", "27")
			require.NoError(t, err)
			assert.Equal(t, b.TotalTax, Round(b.CGST+b.SGST+b.IGST),
				"amount %.2f rate %.2f", amt, rate)
		}
	}
}

func TestSplit_ZeroAmountAndZeroRate(t *testing.T) {
	b, err := Split(0, 12, "27", "27")
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.TotalTax)

	b, err = Split(1000, 0, "27", "07")
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.IGST)
	assert.Equal(t, 0.0, b.TotalTax)
}

func TestSplit_InvalidStateCodes(t *testing.T) {
	_, err := Split(1000, 12, "", "27")
	var sc *InvalidStateCodeError
	require.ErrorAs(t, err, &sc)
	assert.Equal(t, "seller", sc.Field)

	_, err = Split(1000, 12, "27", "99")
	require.ErrorAs(t, err, &sc)
	assert.Equal(t, "buyer", sc.Field)
	assert.Equal(t, "99", sc.Code)
}

func TestSplit_NegativeInputs(t *testing.T) {
	_, err := Split(-1, 12, "27", "27")
	require.Error(t, err)

	_, err = Split(1000, -5, "27", "27")
	require.Error(t, err)
}

func TestItemShares_Proportional(t *testing.T) {
	items := []models.LineItem{
		{Name: "A", Quantity: 2, UnitPrice: 250}, // 500
		{Name: "B", Quantity: 1, UnitPrice: 500}, // 500
	}

	shares := ItemShares(items, 1000, 120)
	require.Len(t, shares, 2)

	assert.Equal(t, 500.0, shares[0].Taxable)
	assert.Equal(t, 60.0, shares[0].Tax)
	assert.Equal(t, 500.0, shares[1].Taxable)
	assert.Equal(t, 60.0, shares[1].Tax)
}

func TestItemShares_Empty(t *testing.T) {
	assert.Nil(t, ItemShares(nil, 1000, 120))
}

func TestItemShares_ZeroValueItems(t *testing.T) {
	items := []models.LineItem{{Name: "Freebie", Quantity: 1, UnitPrice: 0}}

	shares := ItemShares(items, 0, 0)
	require.Len(t, shares, 1)
	assert.Equal(t, 0.0, shares[0].Taxable)
}
