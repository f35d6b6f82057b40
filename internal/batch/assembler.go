// Package batch orchestrates ingestion output, tax resolution, numbering,
// rendering, and packaging into one generation run.
package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"invoicekit/internal/gst"
	"invoicekit/internal/models"
	"invoicekit/internal/render"
	"invoicekit/internal/sequence"
	"invoicekit/internal/taxrules"
)

// PartialBatchError wraps the first per-order failure in a run. The batch
// is fail-fast: a skipped order would leave a gap in the invoice number
// sequence, so nothing is emitted once any order fails.
type PartialBatchError struct {
	Index       int
	OrderNumber string
	Err         error
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("batch aborted at order %d (%s): %v", e.Index+1, e.OrderNumber, e.Err)
}

func (e *PartialBatchError) Unwrap() error { return e.Err }

// Request carries everything one generation run needs. The company config
// and rules are owned by the caller and read-only here; the start number
// comes from the caller's persisted counter.
type Request struct {
	Company     *models.CompanyConfig
	Rules       []models.TaxRule
	Orders      []*models.Order
	Format      models.OutputFormat
	Logo        []byte
	StartNumber int64
}

// Output is the packaged result of one run.
type Output struct {
	Data        []byte
	ContentType string
	Result      models.BatchResult
	Warnings    []string
}

// Assembler runs batches. It holds no per-batch state and is safe for
// concurrent use across sellers.
type Assembler struct {
	renderer      render.DocumentRenderer
	workers       int
	renderTimeout time.Duration
}

// NewAssembler creates an assembler. workers bounds render parallelism for
// archive output; renderTimeout bounds each single-order render call.
func NewAssembler(renderer render.DocumentRenderer, workers int, renderTimeout time.Duration) *Assembler {
	if workers < 1 {
		workers = 1
	}
	if renderTimeout <= 0 {
		renderTimeout = 30 * time.Second
	}
	return &Assembler{renderer: renderer, workers: workers, renderTimeout: renderTimeout}
}

// Run executes one batch end to end. Rule validation happens before any
// order is touched; per-order failures abort the whole run with a
// PartialBatchError. On success the caller must persist Result.NextStart.
func (a *Assembler) Run(ctx context.Context, req *Request) (*Output, error) {
	if !req.Format.Valid() {
		return nil, fmt.Errorf("unsupported output format %q", req.Format)
	}
	if err := req.Company.Validate(); err != nil {
		return nil, err
	}
	warnings, err := taxrules.Validate(req.Rules)
	if err != nil {
		return nil, err
	}

	assignment := sequence.Assign(req.Company.InvoicePrefix, req.StartNumber, len(req.Orders))

	records, err := a.assemble(req, assignment.Numbers)
	if err != nil {
		return nil, err
	}

	var data []byte
	var contentType string
	switch req.Format {
	case models.FormatArchive:
		docs, err := a.renderAll(ctx, records, req.Company, req.Logo)
		if err != nil {
			return nil, err
		}
		data, err = packageArchive(records, docs)
		if err != nil {
			return nil, err
		}
		contentType = "application/zip"
	case models.FormatMerged:
		budget := a.renderTimeout * time.Duration(maxInt(len(records), 1))
		mctx, cancel := context.WithTimeout(ctx, budget)
		data, err = a.renderer.RenderBatch(mctx, records, req.Company, req.Logo)
		cancel()
		if err != nil {
			return nil, wrapRenderFailure(records, err)
		}
		contentType = "application/pdf"
	}

	result := models.BatchResult{
		OrderCount:  len(req.Orders),
		Format:      req.Format,
		NextStart:   assignment.NextStart,
		GeneratedAt: time.Now().UTC(),
	}
	if n := len(assignment.Numbers); n > 0 {
		result.FirstNumber = assignment.Numbers[0]
		result.LastNumber = assignment.Numbers[n-1]
	}

	return &Output{Data: data, ContentType: contentType, Result: result, Warnings: warnings}, nil
}

// assemble builds one finalized InvoiceRecord per order, in source order.
// Resolution and split are pure, so errors here are deterministic data or
// configuration problems.
func (a *Assembler) assemble(req *Request, numbers []string) ([]*models.InvoiceRecord, error) {
	records := make([]*models.InvoiceRecord, len(req.Orders))
	for i, order := range req.Orders {
		rate, err := taxrules.Resolve(order.CreatedAt, req.Rules)
		if err != nil {
			return nil, &PartialBatchError{Index: i, OrderNumber: order.Number, Err: err}
		}

		buyerCode := buyerStateCode(order)
		breakdown, err := gst.Split(order.TaxableAmount, rate, req.Company.SellerStateCode, buyerCode)
		if err != nil {
			return nil, &PartialBatchError{Index: i, OrderNumber: order.Number, Err: err}
		}
		breakdown.ItemTaxes = gst.ItemShares(order.LineItems, order.TaxableAmount, breakdown.TotalTax)

		records[i] = &models.InvoiceRecord{
			Order:          order,
			InvoiceNumber:  numbers[i],
			Sequence:       req.StartNumber + int64(i),
			BuyerStateCode: buyerCode,
			Tax:            breakdown,
			InvoiceTotal:   gst.Round(order.TaxableAmount + order.ShippingAmount + breakdown.TotalTax),
		}
	}
	return records, nil
}

// buyerStateCode maps the export's state field to a GST code. Exports carry
// the state name; a bare two-digit code is accepted as-is. Unknown values
// pass through so the split calculator reports them uniformly.
func buyerStateCode(order *models.Order) string {
	if code, ok := models.StateCodeFor(order.BuyerState); ok {
		return code
	}
	return order.BuyerState
}

// renderAll renders records in parallel, bounded by the worker count, and
// reassembles results by source position: numbering and packaging follow
// source order, never completion order.
func (a *Assembler) renderAll(ctx context.Context, records []*models.InvoiceRecord, company *models.CompanyConfig, logo []byte) ([][]byte, error) {
	n := len(records)
	if n == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	docs := make([][]byte, n)
	jobs := make(chan int)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failIdx  = -1
		failWith error
	)

	workers := minInt(a.workers, n)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rctx, rcancel := context.WithTimeout(ctx, a.renderTimeout)
				data, err := a.renderer.RenderInvoice(rctx, records[i], company, logo)
				rcancel()
				if err != nil {
					mu.Lock()
					if failIdx == -1 || i < failIdx {
						failIdx, failWith = i, err
					}
					mu.Unlock()
					cancel()
					return
				}
				docs[i] = data
			}
		}()
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if failIdx >= 0 {
		return nil, &PartialBatchError{Index: failIdx, OrderNumber: records[failIdx].Order.Number, Err: failWith}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return docs, nil
}

// wrapRenderFailure attributes a merged-document failure to the record the
// renderer reported, falling back to the first record.
func wrapRenderFailure(records []*models.InvoiceRecord, err error) error {
	if rerr, ok := err.(*render.RenderError); ok {
		for i, rec := range records {
			if rec.InvoiceNumber == rerr.InvoiceNumber {
				return &PartialBatchError{Index: i, OrderNumber: rec.Order.Number, Err: err}
			}
		}
	}
	if len(records) > 0 {
		return &PartialBatchError{Index: 0, OrderNumber: records[0].Order.Number, Err: err}
	}
	return err
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
