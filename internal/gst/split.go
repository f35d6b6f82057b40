// Package gst computes the CGST/SGST vs IGST breakdown for an order.
package gst

import (
	"fmt"
	"math"

	"invoicekit/internal/models"
)

// InvalidStateCodeError reports a missing or unrecognized GST state code.
type InvalidStateCodeError struct {
	Field string
	Code  string
}

func (e *InvalidStateCodeError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s state code is empty", e.Field)
	}
	return fmt.Sprintf("%s state code %q is not a recognized two-digit GST state code", e.Field, e.Code)
}

// Round rounds a monetary value to two decimal places, half up.
func Round(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// Split computes the tax breakdown for a taxable amount at the given rate.
// Equal seller and buyer state codes mean an intra-state transaction taxed
// as CGST+SGST in equal halves; otherwise the full amount is IGST.
//
// Each component is rounded independently to the paisa, half-up. The
// reported TotalTax always equals CGST+SGST+IGST exactly: when the two
// intra-state halves round to a sum one paisa off the rounded total, the
// residual is folded into CGST.
func Split(taxableAmount, rate float64, sellerStateCode, buyerStateCode string) (models.TaxBreakdown, error) {
	var b models.TaxBreakdown

	if !models.IsKnownStateCode(sellerStateCode) {
		return b, &InvalidStateCodeError{Field: "seller", Code: sellerStateCode}
	}
	if !models.IsKnownStateCode(buyerStateCode) {
		return b, &InvalidStateCodeError{Field: "buyer", Code: buyerStateCode}
	}
	if taxableAmount < 0 {
		return b, fmt.Errorf("taxable amount %.2f is negative", taxableAmount)
	}
	if rate < 0 {
		return b, fmt.Errorf("tax rate %.2f is negative", rate)
	}

	b.Rate = rate
	total := Round(taxableAmount * rate / 100)

	if sellerStateCode == buyerStateCode {
		b.IntraState = true
		half := Round(taxableAmount * rate / 200)
		b.CGST = half
		b.SGST = half
		if residual := Round(total - (b.CGST + b.SGST)); residual != 0 {
			b.CGST = Round(b.CGST + residual)
		}
	} else {
		b.IGST = total
	}

	b.TotalTax = Round(b.CGST + b.SGST + b.IGST)
	return b, nil
}

// ItemShares distributes the order-level taxable amount, tax, and discount
// proportionally across line items by their gross line value, for display
// on the rendered document. Each share is rounded to the paisa.
func ItemShares(items []models.LineItem, taxable, totalTax float64) []models.ItemTax {
	if len(items) == 0 {
		return nil
	}

	var totalValue, totalDiscount float64
	for _, it := range items {
		totalValue += it.UnitPrice * float64(it.Quantity)
		totalDiscount += it.Discount
	}
	if totalValue == 0 {
		totalValue = 1
	}

	shares := make([]models.ItemTax, len(items))
	for i, it := range items {
		p := it.UnitPrice * float64(it.Quantity) / totalValue
		share := models.ItemTax{
			Taxable:  Round(taxable * p),
			Tax:      Round(totalTax * p),
			Discount: Round(totalDiscount * p),
		}
		share.Total = Round(share.Taxable + share.Tax - share.Discount)
		shares[i] = share
	}
	return shares
}
