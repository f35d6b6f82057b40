package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"invoicekit/internal/batch"
	"invoicekit/internal/caching"
	"invoicekit/internal/common"
	"invoicekit/internal/gst"
	"invoicekit/internal/ingest"
	"invoicekit/internal/models"
	"invoicekit/internal/render"
	"invoicekit/internal/services"
	"invoicekit/internal/taxrules"
)

// maxUploadBytes bounds each uploaded file (export or logo).
const maxUploadBytes = 20 << 20

// maxHistoryLimit caps history page sizes.
const maxHistoryLimit = 100

// BatchHandlers serves the invoice generation endpoints.
type BatchHandlers struct {
	batchService services.BatchServiceInterface
}

// NewBatchHandlers creates a new batch handlers instance
func NewBatchHandlers(batchService services.BatchServiceInterface) *BatchHandlers {
	return &BatchHandlers{batchService: batchService}
}

// CountOrders handles POST /count. It parses the uploaded export and
// returns how many orders it contains, for caller-side feedback before
// generation.
func (h *BatchHandlers) CountOrders(c echo.Context) error {
	data, filename, err := readUpload(c, "orders_file")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	count, err := h.batchService.CountOrders(data, filename)
	if err != nil {
		return sendPipelineError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]int{"count": count})
}

// Preview handles POST /preview: renders the first order of the export as
// a single-invoice PDF without advancing the counter.
func (h *BatchHandlers) Preview(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, ok := common.GetSellerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	data, filename, err := readUpload(c, "orders_file")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	cfg, err := readConfig(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	logo, err := readOptionalUpload(c, "logo_file")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	pdf, err := h.batchService.Preview(ctx, sellerID, data, filename, cfg, logo)
	if err != nil {
		return sendPipelineError(c, err)
	}

	c.Response().Header().Set("Content-Disposition", `inline; filename="preview.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}

// Generate handles POST /generate: runs the full batch and streams back
// either a zip archive of per-invoice PDFs or one merged PDF.
func (h *BatchHandlers) Generate(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, ok := common.GetSellerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	data, filename, err := readUpload(c, "orders_file")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	cfg, err := readConfig(c)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	logo, err := readOptionalUpload(c, "logo_file")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	format := models.OutputFormat(c.FormValue("format"))
	if format == "" {
		format = models.FormatArchive
	}
	if !format.Valid() {
		return common.SendValidationError(c, "format",
			fmt.Sprintf("must be %q or %q", models.FormatArchive, models.FormatMerged))
	}

	out, err := h.batchService.Generate(ctx, sellerID, data, filename, cfg, format, logo)
	if err != nil {
		return sendPipelineError(c, err)
	}

	for _, w := range out.Warnings {
		c.Response().Header().Add("X-Batch-Warning", w)
	}
	c.Response().Header().Set("X-Batch-Result", encodeResult(&out.Result))
	c.Response().Header().Set("Content-Disposition", attachmentName(format))
	return c.Blob(http.StatusOK, out.ContentType, out.Data)
}

// History handles GET /history with limit/offset pagination.
func (h *BatchHandlers) History(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, ok := common.GetSellerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	limit := 20
	offset := 0
	if limitParam := c.QueryParam("limit"); limitParam != "" {
		l, err := strconv.Atoi(limitParam)
		if err != nil {
			return common.SendValidationError(c, "limit", "must be an integer")
		}
		if err := common.ValidatePositiveInteger(l, "limit", maxHistoryLimit); err != nil {
			return common.SendValidationError(c, "limit", err.Error())
		}
		limit = l
	}
	if offsetParam := c.QueryParam("offset"); offsetParam != "" {
		o, err := strconv.Atoi(offsetParam)
		if err != nil || o < 0 {
			return common.SendValidationError(c, "offset", "must be a non-negative integer")
		}
		offset = o
	}

	summaries, err := h.batchService.History(ctx, sellerID, limit, offset)
	if err != nil {
		return common.SendServerError(c, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"history": summaries,
		"limit":   limit,
		"offset":  offset,
	})
}

// DownloadOutput handles GET /history/:id/download, streaming a stored
// batch output.
func (h *BatchHandlers) DownloadOutput(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, ok := common.GetSellerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	summaryID, err := common.ValidateUUID(c.Param("id"), "batch id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	data, contentType, err := h.batchService.FetchOutput(ctx, sellerID, summaryID)
	if err != nil {
		return common.SendNotFoundError(c, "batch output")
	}
	return c.Blob(http.StatusOK, contentType, data)
}

// DownloadURL handles GET /history/:id/url, returning a short-lived
// presigned link so the client can fetch the stored output directly from
// object storage.
func (h *BatchHandlers) DownloadURL(c echo.Context) error {
	ctx := c.Request().Context()

	sellerID, ok := common.GetSellerIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	summaryID, err := common.ValidateUUID(c.Param("id"), "batch id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	url, err := h.batchService.OutputURL(ctx, sellerID, summaryID)
	if err != nil {
		return common.SendNotFoundError(c, "batch output")
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

func readUpload(c echo.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", fmt.Errorf("%s is required", field)
	}
	data, err := readMultipartFile(fh)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}

func readOptionalUpload(c echo.Context, field string) ([]byte, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil
	}
	return readMultipartFile(fh)
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxUploadBytes {
		return nil, fmt.Errorf("file %s exceeds the %d MB upload limit", fh.Filename, maxUploadBytes>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes))
}

func readConfig(c echo.Context) (*models.InvoiceConfig, error) {
	raw := c.FormValue("config_json")
	if err := common.ValidateRequiredString(raw, "config_json"); err != nil {
		return nil, err
	}
	var cfg models.InvoiceConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("invalid config JSON: %v", err)
	}
	return &cfg, nil
}

func encodeResult(result *models.BatchResult) string {
	data, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return string(data)
}

func attachmentName(format models.OutputFormat) string {
	if format == models.FormatMerged {
		return `attachment; filename="invoices.pdf"`
	}
	return `attachment; filename="invoices.zip"`
}

// sendPipelineError maps the pipeline error taxonomy onto HTTP responses,
// keeping the error kind machine-readable so the seller can fix the
// offending order or rule and retry.
func sendPipelineError(c echo.Context, err error) error {
	var (
		parseErr   *ingest.ParseError
		ruleErr    *taxrules.InvalidRuleError
		noRuleErr  *taxrules.NoMatchingRuleError
		stateErr   *gst.InvalidStateCodeError
		renderErr  *render.RenderError
		partialErr *batch.PartialBatchError
	)

	switch {
	case errors.As(err, &partialErr):
		details := map[string]string{
			"order_index":  strconv.Itoa(partialErr.Index),
			"order_number": partialErr.OrderNumber,
		}
		return common.SendUnprocessableError(c, pipelineErrorKind(partialErr.Err), err.Error(), details)
	case errors.As(err, &parseErr):
		return common.SendUnprocessableError(c, "PARSE_ERROR", err.Error(), nil)
	case errors.As(err, &ruleErr):
		return common.SendUnprocessableError(c, "INVALID_RULE", err.Error(), nil)
	case errors.As(err, &noRuleErr):
		return common.SendUnprocessableError(c, "NO_MATCHING_RULE", err.Error(), nil)
	case errors.As(err, &stateErr):
		return common.SendUnprocessableError(c, "INVALID_STATE_CODE", err.Error(), nil)
	case errors.As(err, &renderErr):
		return common.SendUnprocessableError(c, "RENDER_ERROR", err.Error(), nil)
	case errors.Is(err, caching.ErrLeaseHeld):
		return common.SendConflictError(c, err.Error())
	case errors.Is(err, services.ErrNoOrders):
		return common.SendClientError(c, err.Error())
	default:
		return common.SendServerError(c, err.Error())
	}
}

func pipelineErrorKind(err error) string {
	var (
		noRuleErr *taxrules.NoMatchingRuleError
		stateErr  *gst.InvalidStateCodeError
		renderErr *render.RenderError
	)
	switch {
	case errors.As(err, &noRuleErr):
		return "NO_MATCHING_RULE"
	case errors.As(err, &stateErr):
		return "INVALID_STATE_CODE"
	case errors.As(err, &renderErr):
		return "RENDER_ERROR"
	default:
		return "BATCH_ERROR"
	}
}
