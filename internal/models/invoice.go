package models

import (
	"time"

	"github.com/google/uuid"
)

// ItemTax is the proportional tax share of one line item, carried onto the
// rendered document.
type ItemTax struct {
	Taxable  float64 `json:"taxable"`
	Tax      float64 `json:"tax"`
	Discount float64 `json:"discount"`
	Total    float64 `json:"total"`
}

// TaxBreakdown is the resolved tax computation for one order.
type TaxBreakdown struct {
	Rate       float64   `json:"rate"`
	IntraState bool      `json:"intra_state"`
	CGST       float64   `json:"cgst"`
	SGST       float64   `json:"sgst"`
	IGST       float64   `json:"igst"`
	TotalTax   float64   `json:"total_tax"`
	ItemTaxes  []ItemTax `json:"item_taxes"`
}

// InvoiceRecord is the finalized per-order output handed to the document
// renderer. It exists only for the duration of one batch.
type InvoiceRecord struct {
	Order          *Order       `json:"order"`
	InvoiceNumber  string       `json:"invoice_number"`
	Sequence       int64        `json:"sequence"`
	BuyerStateCode string       `json:"buyer_state_code"`
	Tax            TaxBreakdown `json:"tax"`
	InvoiceTotal   float64      `json:"invoice_total"`
}

// OutputFormat selects how a batch is packaged.
type OutputFormat string

const (
	// FormatArchive packages one PDF per invoice into a zip, each entry
	// named by its invoice number.
	FormatArchive OutputFormat = "archive"
	// FormatMerged concatenates all invoices into one PDF, one page each,
	// preserving source order.
	FormatMerged OutputFormat = "merged"
)

// Valid reports whether f is a supported output format.
func (f OutputFormat) Valid() bool {
	return f == FormatArchive || f == FormatMerged
}

// BatchResult summarizes one generation run. NextStart is the counter value
// the caller must persist before the next batch.
type BatchResult struct {
	OrderCount  int          `json:"order_count"`
	FirstNumber string       `json:"first_number"`
	LastNumber  string       `json:"last_number"`
	Format      OutputFormat `json:"format"`
	NextStart   int64        `json:"next_start"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// BatchSummary is the audit row retained after a batch; invoice contents
// themselves are not persisted.
type BatchSummary struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	SellerID    uuid.UUID    `json:"seller_id" db:"seller_id"`
	GeneratedAt time.Time    `json:"generated_at" db:"generated_at"`
	OrderCount  int          `json:"order_count" db:"order_count"`
	FirstNumber string       `json:"first_number" db:"first_number"`
	LastNumber  string       `json:"last_number" db:"last_number"`
	Format      OutputFormat `json:"format" db:"format"`
	ObjectKey   string       `json:"object_key" db:"object_key"`
}
