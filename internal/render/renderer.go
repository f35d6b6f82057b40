// Package render turns finalized invoice records into document bytes.
package render

import (
	"context"
	"fmt"

	"invoicekit/internal/models"
)

// RenderError reports a failure inside the document renderer.
type RenderError struct {
	InvoiceNumber string
	Err           error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering invoice %s: %v", e.InvoiceNumber, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DocumentRenderer is the rendering collaborator. Implementations must be
// deterministic: the same record renders to byte-identical output.
type DocumentRenderer interface {
	// RenderInvoice renders one invoice record to a standalone document.
	RenderInvoice(ctx context.Context, rec *models.InvoiceRecord, company *models.CompanyConfig, logo []byte) ([]byte, error)

	// RenderBatch renders all records into one combined document, one
	// page per invoice, preserving slice order.
	RenderBatch(ctx context.Context, recs []*models.InvoiceRecord, company *models.CompanyConfig, logo []byte) ([]byte, error)
}
