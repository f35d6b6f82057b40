package render

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"invoicekit/internal/models"
)

// PDFRenderer renders A4 GST invoices with gofpdf.
type PDFRenderer struct{}

// NewPDFRenderer creates the default PDF renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

const (
	marginX = 15.0
	marginY = 12.0
)

// RenderInvoice renders one invoice record to a standalone PDF.
func (r *PDFRenderer) RenderInvoice(ctx context.Context, rec *models.InvoiceRecord, company *models.CompanyConfig, logo []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, &RenderError{InvoiceNumber: rec.InvoiceNumber, Err: err}
	}
	pdf := newDocument(rec.Order.CreatedAt)
	writeInvoicePage(pdf, rec, company, logo)
	return output(pdf, rec.InvoiceNumber)
}

// RenderBatch renders all records into one PDF, one page per invoice, in
// slice order.
func (r *PDFRenderer) RenderBatch(ctx context.Context, recs []*models.InvoiceRecord, company *models.CompanyConfig, logo []byte) ([]byte, error) {
	var pdf *gofpdf.Fpdf
	label := ""
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return nil, &RenderError{InvoiceNumber: rec.InvoiceNumber, Err: err}
		}
		if pdf == nil {
			pdf = newDocument(rec.Order.CreatedAt)
			label = rec.InvoiceNumber
		}
		writeInvoicePage(pdf, rec, company, logo)
	}
	if pdf == nil {
		// Zero orders still produce a well-formed empty document.
		pdf = newDocument(time.Time{})
		pdf.AddPage()
	}
	return output(pdf, label)
}

// newDocument builds an empty A4 document. The creation date is pinned to
// the invoice issue date so re-rendering the same record is byte-identical.
func newDocument(issued time.Time) *gofpdf.Fpdf {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)
	if issued.IsZero() {
		issued = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	pdf.SetCreationDate(issued.UTC())
	return pdf
}

func output(pdf *gofpdf.Fpdf, invoiceNumber string) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, &RenderError{InvoiceNumber: invoiceNumber, Err: err}
	}
	return buf.Bytes(), nil
}

func writeInvoicePage(pdf *gofpdf.Fpdf, rec *models.InvoiceRecord, company *models.CompanyConfig, logo []byte) {
	pdf.AddPage()
	order := rec.Order

	// Header: logo or company name, GSTIN and contact underneath.
	pdf.SetTextColor(26, 26, 46)
	if len(logo) > 0 {
		drawLogo(pdf, rec.InvoiceNumber, logo)
	} else {
		pdf.SetFont("Arial", "B", 16)
		pdf.Cell(0, 8, company.Name)
		pdf.Ln(8)
	}
	pdf.SetFont("Arial", "", 9)
	pdf.SetTextColor(33, 37, 41)
	if company.GSTIN != "" {
		pdf.Cell(0, 5, fmt.Sprintf("GSTIN: %s", company.GSTIN))
		pdf.Ln(5)
	}
	pdf.Cell(0, 5, company.Address)
	pdf.Ln(5)
	if contact := contactLine(company); contact != "" {
		pdf.Cell(0, 5, contact)
		pdf.Ln(5)
	}

	pdf.Ln(2)
	pdf.SetDrawColor(15, 52, 96)
	pdf.SetLineWidth(0.4)
	pdf.Line(marginX, pdf.GetY(), 210-marginX, pdf.GetY())
	pdf.Ln(4)

	// Invoice meta.
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "TAX INVOICE")
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(95, 6, fmt.Sprintf("Invoice No: %s", rec.InvoiceNumber))
	pdf.Cell(0, 6, fmt.Sprintf("Invoice Date: %s", order.CreatedAt.Format("02-Jan-2006")))
	pdf.Ln(6)
	pdf.Cell(95, 6, fmt.Sprintf("Order Ref: %s", order.Number))
	if company.TransportMode != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Transport: %s", company.TransportMode))
	}
	pdf.Ln(10)

	// Buyer and dispatch blocks.
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(95, 6, "BILL TO")
	pdf.Cell(0, 6, "DISPATCHED FROM")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	billTo := buyerLines(order)
	shipFrom := sellerLines(company)
	for i := 0; i < len(billTo) || i < len(shipFrom); i++ {
		left, right := "", ""
		if i < len(billTo) {
			left = billTo[i]
		}
		if i < len(shipFrom) {
			right = shipFrom[i]
		}
		pdf.Cell(95, 5, left)
		pdf.Cell(0, 5, right)
		pdf.Ln(5)
	}
	pdf.Ln(4)

	writeItemsTable(pdf, rec, company)
	writeTotals(pdf, rec)
	writeFooter(pdf, company)
}

func drawLogo(pdf *gofpdf.Fpdf, invoiceNumber string, logo []byte) {
	imgType := sniffImageType(logo)
	if imgType == "" {
		return
	}
	// Image names are unique per page; gofpdf rejects re-registering a name.
	name := "logo-" + invoiceNumber
	opts := gofpdf.ImageOptions{ImageType: imgType, ReadDpi: true}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(logo))
	pdf.ImageOptions(name, marginX, marginY, 40, 0, false, opts, 0, "")
	pdf.Ln(18)
}

func sniffImageType(data []byte) string {
	switch {
	case len(data) > 8 && bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "PNG"
	case len(data) > 3 && bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return "JPG"
	default:
		return ""
	}
}

func contactLine(company *models.CompanyConfig) string {
	switch {
	case company.Email != "" && company.Website != "":
		return fmt.Sprintf("%s  |  %s", company.Email, company.Website)
	case company.Email != "":
		return company.Email
	default:
		return company.Website
	}
}

func buyerLines(order *models.Order) []string {
	lines := []string{order.CustomerName, order.BillingAddress1}
	if order.BillingAddress2 != "" {
		lines = append(lines, order.BillingAddress2)
	}
	cityLine := order.BillingCity
	if order.BillingZip != "" {
		cityLine += " - " + order.BillingZip
	}
	lines = append(lines, cityLine, order.BuyerState)
	if order.Phone != "" {
		lines = append(lines, order.Phone)
	}
	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func sellerLines(company *models.CompanyConfig) []string {
	from := company.ShippedFrom
	if from == "" {
		from = company.Address
	}
	lines := []string{company.Name, from, company.SellerState}
	out := lines[:0]
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func writeItemsTable(pdf *gofpdf.Fpdf, rec *models.InvoiceRecord, company *models.CompanyConfig) {
	headers := []string{"Description", "HSN", "Qty", "Rate", "Taxable", "Tax", "Total"}
	widths := []float64{62, 18, 12, 20, 24, 20, 24}

	pdf.SetFont("Arial", "B", 9)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 9)
	for i, item := range rec.Order.LineItems {
		desc := item.Name
		if item.Variant != "" {
			desc += " (" + item.Variant + ")"
		}
		var share models.ItemTax
		if i < len(rec.Tax.ItemTaxes) {
			share = rec.Tax.ItemTaxes[i]
		}
		pdf.CellFormat(widths[0], 7, desc, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, company.HSNCode, "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%d", item.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("%.2f", item.UnitPrice), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("%.2f", share.Taxable), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 7, fmt.Sprintf("%.2f", share.Tax), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[6], 7, fmt.Sprintf("%.2f", share.Total), "1", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	pdf.Ln(3)
}

func writeTotals(pdf *gofpdf.Fpdf, rec *models.InvoiceRecord) {
	labelW, valueW := 140.0, 40.0
	row := func(label, value string) {
		pdf.CellFormat(labelW, 5, label, "", 0, "R", false, 0, "")
		pdf.CellFormat(valueW, 5, value, "", 0, "R", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "", 9)
	row("Taxable Value:", fmt.Sprintf("%.2f", rec.Order.TaxableAmount))
	if rec.Order.ShippingAmount > 0 {
		row("Shipping:", fmt.Sprintf("%.2f", rec.Order.ShippingAmount))
	}
	if rec.Tax.IntraState {
		row(fmt.Sprintf("CGST (%.1f%%):", rec.Tax.Rate/2), fmt.Sprintf("%.2f", rec.Tax.CGST))
		row(fmt.Sprintf("SGST (%.1f%%):", rec.Tax.Rate/2), fmt.Sprintf("%.2f", rec.Tax.SGST))
	} else {
		row(fmt.Sprintf("IGST (%.1f%%):", rec.Tax.Rate), fmt.Sprintf("%.2f", rec.Tax.IGST))
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.SetTextColor(15, 52, 96)
	row("TOTAL:", fmt.Sprintf("%.2f", rec.InvoiceTotal))
	pdf.SetTextColor(33, 37, 41)
	pdf.Ln(3)
}

func writeFooter(pdf *gofpdf.Fpdf, company *models.CompanyConfig) {
	pdf.SetFont("Arial", "B", 9)
	pdf.Cell(0, 5, "Terms & Conditions")
	pdf.Ln(5)
	pdf.SetFont("Arial", "", 8)
	pdf.Cell(0, 4, "1. This is a computer generated invoice and does not require a signature.")
	pdf.Ln(4)
	pdf.Cell(0, 4, "2. All disputes are subject to the jurisdiction of the seller's state.")
	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 4, fmt.Sprintf("For %s", company.Name))
}
