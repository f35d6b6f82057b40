package render

import (
	"bytes"
	"context"
	"testing"
	"time"

	"invoicekit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(number string) *models.InvoiceRecord {
	return &models.InvoiceRecord{
		Order: &models.Order{
			Number:          "#1001",
			CreatedAt:       time.Date(2025, 9, 20, 10, 30, 0, 0, time.UTC),
			CustomerName:    "Asha Rao",
			BillingAddress1: "14 Link Rd",
			BillingCity:     "Mumbai",
			BillingZip:      "400001",
			BuyerState:      "Maharashtra",
			TaxableAmount:   1000,
			LineItems: []models.LineItem{
				{Name: "Cotton Kurta", Quantity: 2, UnitPrice: 500},
			},
		},
		InvoiceNumber:  number,
		Sequence:       1,
		BuyerStateCode: "27",
		Tax: models.TaxBreakdown{
			Rate:       12,
			IntraState: true,
			CGST:       60,
			SGST:       60,
			TotalTax:   120,
			ItemTaxes:  []models.ItemTax{{Taxable: 1000, Tax: 120, Total: 1120}},
		},
		InvoiceTotal: 1120,
	}
}

func sampleCompany() *models.CompanyConfig {
	return &models.CompanyConfig{
		Name:               "Acme Textiles Pvt Ltd",
		GSTIN:              "27AAPFU0939F1ZV",
		Address:            "12 MG Road, Pune",
		SellerState:        "Maharashtra",
		SellerStateCode:    "27",
		InvoicePrefix:      "INV-",
		InvoiceStartNumber: 1,
	}
}

func TestRenderInvoice_ProducesPDF(t *testing.T) {
	r := NewPDFRenderer()

	data, err := r.RenderInvoice(context.Background(), sampleRecord("INV-001"), sampleCompany(), nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
	assert.Greater(t, len(data), 500)
}

func TestRenderInvoice_Deterministic(t *testing.T) {
	r := NewPDFRenderer()
	rec := sampleRecord("INV-001")
	company := sampleCompany()

	first, err := r.RenderInvoice(context.Background(), rec, company, nil)
	require.NoError(t, err)
	second, err := r.RenderInvoice(context.Background(), rec, company, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRenderInvoice_CancelledContext(t *testing.T) {
	r := NewPDFRenderer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RenderInvoice(ctx, sampleRecord("INV-001"), sampleCompany(), nil)
	var rerr *RenderError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "INV-001", rerr.InvoiceNumber)
}

func TestRenderBatch_OnePagePerInvoice(t *testing.T) {
	r := NewPDFRenderer()
	recs := []*models.InvoiceRecord{sampleRecord("INV-001"), sampleRecord("INV-002")}

	data, err := r.RenderBatch(context.Background(), recs, sampleCompany(), nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	single, err := r.RenderInvoice(context.Background(), recs[0], sampleCompany(), nil)
	require.NoError(t, err)
	assert.Greater(t, len(data), len(single))
}

func TestRenderBatch_EmptyBatch(t *testing.T) {
	r := NewPDFRenderer()

	data, err := r.RenderBatch(context.Background(), nil, sampleCompany(), nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestSniffImageType(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
	jpg := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 16)...)

	assert.Equal(t, "PNG", sniffImageType(png))
	assert.Equal(t, "JPG", sniffImageType(jpg))
	assert.Equal(t, "", sniffImageType([]byte("GIF89a")))
	assert.Equal(t, "", sniffImageType(nil))
}
