package taxrules

import (
	"testing"
	"time"

	"invoicekit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(s string) *time.Time {
	d := date(s)
	return &d
}

func TestResolve_SingleRule(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-01-01"), To: datePtr("2025-12-31"), Rate: 12},
	}

	rate, err := Resolve(date("2025-06-15"), rules)
	require.NoError(t, err)
	assert.Equal(t, 12.0, rate)
}

func TestResolve_BoundaryDatesInclusive(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-01-01"), To: datePtr("2025-12-31"), Rate: 12},
	}

	rate, err := Resolve(date("2025-01-01"), rules)
	require.NoError(t, err)
	assert.Equal(t, 12.0, rate)

	rate, err = Resolve(date("2025-12-31"), rules)
	require.NoError(t, err)
	assert.Equal(t, 12.0, rate)
}

func TestResolve_TimeOfDayIgnored(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-01-01"), To: datePtr("2025-01-01"), Rate: 5},
	}

	rate, err := Resolve(time.Date(2025, 1, 1, 23, 59, 59, 0, time.UTC), rules)
	require.NoError(t, err)
	assert.Equal(t, 5.0, rate)
}

func TestResolve_OpenEndedRule(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-09-22"), To: nil, Rate: 5},
	}

	rate, err := Resolve(date("2030-01-01"), rules)
	require.NoError(t, err)
	assert.Equal(t, 5.0, rate)

	_, err = Resolve(date("2025-09-21"), rules)
	var noMatch *NoMatchingRuleError
	require.ErrorAs(t, err, &noMatch)
}

func TestResolve_NoMatchingRule(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-01-01"), To: datePtr("2025-06-30"), Rate: 12},
	}

	_, err := Resolve(date("2025-07-01"), rules)
	var noMatch *NoMatchingRuleError
	require.ErrorAs(t, err, &noMatch)
	assert.Equal(t, date("2025-07-01"), noMatch.Date)
}

func TestResolve_NoRules(t *testing.T) {
	_, err := Resolve(date("2025-07-01"), nil)
	var noMatch *NoMatchingRuleError
	require.ErrorAs(t, err, &noMatch)
}

func TestResolve_OverlapLatestFromWins(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-01-01"), To: datePtr("2025-12-31"), Rate: 12},
		{From: date("2025-06-01"), To: datePtr("2025-12-31"), Rate: 5},
	}

	// Inside the overlap the later 'from' governs.
	rate, err := Resolve(date("2025-08-10"), rules)
	require.NoError(t, err)
	assert.Equal(t, 5.0, rate)

	// Before the second rule begins, the first still applies.
	rate, err = Resolve(date("2025-03-10"), rules)
	require.NoError(t, err)
	assert.Equal(t, 12.0, rate)
}

func TestResolve_InputOrderIrrelevant(t *testing.T) {
	a := []models.TaxRule{
		{From: date("2025-06-01"), To: nil, Rate: 5},
		{From: date("2025-01-01"), To: nil, Rate: 12},
	}
	b := []models.TaxRule{a[1], a[0]}

	rateA, err := Resolve(date("2025-07-01"), a)
	require.NoError(t, err)
	rateB, err := Resolve(date("2025-07-01"), b)
	require.NoError(t, err)
	assert.Equal(t, rateA, rateB)
	assert.Equal(t, 5.0, rateA)
}

func TestResolve_DoesNotMutateInput(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-06-01"), To: nil, Rate: 5},
		{From: date("2025-01-01"), To: nil, Rate: 12},
	}

	_, err := Resolve(date("2025-07-01"), rules)
	require.NoError(t, err)
	assert.Equal(t, date("2025-06-01"), rules[0].From)
	assert.Equal(t, date("2025-01-01"), rules[1].From)
}

func TestValidate_InvertedInterval(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-06-01"), To: datePtr("2025-01-01"), Rate: 12},
	}

	_, err := Validate(rules)
	var invalid *InvalidRuleError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 0, invalid.Index)
}

func TestValidate_NegativeRate(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-01-01"), To: nil, Rate: -1},
	}

	_, err := Validate(rules)
	var invalid *InvalidRuleError
	require.ErrorAs(t, err, &invalid)
}

func TestValidate_OverlapWarns(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-01-01"), To: datePtr("2025-12-31"), Rate: 12},
		{From: date("2025-06-01"), To: nil, Rate: 5},
	}

	warnings, err := Validate(rules)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "overlap")
}

func TestValidate_DisjointRulesNoWarnings(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-01-01"), To: datePtr("2025-09-21"), Rate: 12},
		{From: date("2025-09-22"), To: nil, Rate: 5},
	}

	warnings, err := Validate(rules)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestValidate_ZeroRateAllowed(t *testing.T) {
	rules := []models.TaxRule{
		{From: date("2025-01-01"), To: nil, Rate: 0},
	}

	warnings, err := Validate(rules)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}
