package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"invoicekit/internal/batch"
	"invoicekit/internal/caching"
	"invoicekit/internal/ingest"
	"invoicekit/internal/models"
	"invoicekit/internal/repositories"
)

const (
	counterLeaseTTL = 5 * time.Minute

	// downloadURLTTL bounds how long a presigned download link stays valid.
	downloadURLTTL = 15 * time.Minute
)

// ErrNoOrders is returned when an export contains no valid orders.
var ErrNoOrders = errors.New("no valid orders found in export")

// BatchServiceInterface runs the invoice generation pipeline for a seller
// and owns the surrounding persistence: counter, history, stored outputs.
type BatchServiceInterface interface {
	CountOrders(data []byte, filename string) (int, error)
	Preview(ctx context.Context, sellerID uuid.UUID, data []byte, filename string, cfg *models.InvoiceConfig, logo []byte) ([]byte, error)
	Generate(ctx context.Context, sellerID uuid.UUID, data []byte, filename string, cfg *models.InvoiceConfig, format models.OutputFormat, logo []byte) (*batch.Output, error)
	History(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*models.BatchSummary, error)
	FetchOutput(ctx context.Context, sellerID uuid.UUID, summaryID uuid.UUID) ([]byte, string, error)
	OutputURL(ctx context.Context, sellerID uuid.UUID, summaryID uuid.UUID) (string, error)
}

type batchService struct {
	assembler   *batch.Assembler
	configRepo  repositories.ConfigRepository
	historyRepo repositories.HistoryRepository
	cacheSvc    caching.CacheService
	storageSvc  StorageService
	bucket      string
}

// NewBatchService creates a new batch service
func NewBatchService(assembler *batch.Assembler, configRepo repositories.ConfigRepository,
	historyRepo repositories.HistoryRepository, cacheSvc caching.CacheService,
	storageSvc StorageService, bucket string) BatchServiceInterface {
	return &batchService{
		assembler:   assembler,
		configRepo:  configRepo,
		historyRepo: historyRepo,
		cacheSvc:    cacheSvc,
		storageSvc:  storageSvc,
		bucket:      bucket,
	}
}

// CountOrders parses the export and reports how many orders it holds.
func (s *batchService) CountOrders(data []byte, filename string) (int, error) {
	return ingest.Count(data, filename)
}

// Preview renders the first order as a single-invoice batch. It shares the
// full generation path so preview and final output can never diverge; the
// counter is read but never advanced.
func (s *batchService) Preview(ctx context.Context, sellerID uuid.UUID, data []byte, filename string, cfg *models.InvoiceConfig, logo []byte) ([]byte, error) {
	orders, err := ingest.Parse(data, filename)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNoOrders
	}

	start, err := s.startNumber(ctx, sellerID, cfg)
	if err != nil {
		return nil, err
	}

	out, err := s.assembler.Run(ctx, &batch.Request{
		Company:     &cfg.Company,
		Rules:       cfg.TaxRules,
		Orders:      orders[:1],
		Format:      models.FormatMerged,
		Logo:        logo,
		StartNumber: start,
	})
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Generate runs the full pipeline: ingest, assemble, render, package, then
// persist the advanced counter and an audit summary, and store the output
// for later download. The batch either fully succeeds or nothing is
// persisted.
func (s *batchService) Generate(ctx context.Context, sellerID uuid.UUID, data []byte, filename string, cfg *models.InvoiceConfig, format models.OutputFormat, logo []byte) (*batch.Output, error) {
	orders, err := ingest.Parse(data, filename)
	if err != nil {
		return nil, err
	}

	// Serialize batches against this seller's counter; overlapping ranges
	// would break the gap-free numbering guarantee.
	token, err := s.cacheSvc.AcquireCounterLease(ctx, sellerID, counterLeaseTTL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := s.cacheSvc.ReleaseCounterLease(context.Background(), sellerID, token); rerr != nil {
			log.Printf("WARN: releasing counter lease for seller %s: %v", sellerID, rerr)
		}
	}()

	start, err := s.startNumber(ctx, sellerID, cfg)
	if err != nil {
		return nil, err
	}

	out, err := s.assembler.Run(ctx, &batch.Request{
		Company:     &cfg.Company,
		Rules:       cfg.TaxRules,
		Orders:      orders,
		Format:      format,
		Logo:        logo,
		StartNumber: start,
	})
	if err != nil {
		return nil, err
	}

	summaryID := uuid.New()
	objectKey := outputObjectKey(sellerID, summaryID, format)
	if err := s.storageSvc.UploadOutput(ctx, s.bucket, objectKey, out.Data, out.ContentType); err != nil {
		return nil, fmt.Errorf("storing batch output: %w", err)
	}

	if err := s.configRepo.SetCounter(ctx, sellerID, out.Result.NextStart); err != nil {
		return nil, fmt.Errorf("persisting invoice counter: %w", err)
	}

	summary := &models.BatchSummary{
		ID:          summaryID,
		SellerID:    sellerID,
		GeneratedAt: out.Result.GeneratedAt,
		OrderCount:  out.Result.OrderCount,
		FirstNumber: out.Result.FirstNumber,
		LastNumber:  out.Result.LastNumber,
		Format:      format,
		ObjectKey:   objectKey,
	}
	if err := s.historyRepo.Record(ctx, summary); err != nil {
		log.Printf("WARN: recording batch history for seller %s: %v", sellerID, err)
	}

	return out, nil
}

// History lists the seller's past batch summaries.
func (s *batchService) History(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*models.BatchSummary, error) {
	return s.historyRepo.ListBySeller(ctx, sellerID, limit, offset)
}

// FetchOutput re-downloads a stored batch output by its summary row.
func (s *batchService) FetchOutput(ctx context.Context, sellerID uuid.UUID, summaryID uuid.UUID) ([]byte, string, error) {
	summary, err := s.findSummary(ctx, sellerID, summaryID)
	if err != nil {
		return nil, "", err
	}
	return s.storageSvc.FetchOutput(ctx, s.bucket, summary.ObjectKey)
}

// OutputURL returns a short-lived presigned link to a stored batch output,
// so large archives can be fetched straight from object storage.
func (s *batchService) OutputURL(ctx context.Context, sellerID uuid.UUID, summaryID uuid.UUID) (string, error) {
	summary, err := s.findSummary(ctx, sellerID, summaryID)
	if err != nil {
		return "", err
	}
	return s.storageSvc.GetPresignedURL(s.bucket, summary.ObjectKey, downloadURLTTL)
}

func (s *batchService) findSummary(ctx context.Context, sellerID uuid.UUID, summaryID uuid.UUID) (*models.BatchSummary, error) {
	summaries, err := s.historyRepo.ListBySeller(ctx, sellerID, 1000, 0)
	if err != nil {
		return nil, err
	}
	for _, sm := range summaries {
		if sm.ID == summaryID {
			return sm, nil
		}
	}
	return nil, fmt.Errorf("batch %s not found for seller %s", summaryID, sellerID)
}

// startNumber picks the first invoice number of the next batch: the
// persisted counter, unless the seller raised the configured start number
// past it.
func (s *batchService) startNumber(ctx context.Context, sellerID uuid.UUID, cfg *models.InvoiceConfig) (int64, error) {
	stored, ok, err := s.configRepo.GetCounter(ctx, sellerID)
	if err != nil {
		return 0, fmt.Errorf("reading invoice counter: %w", err)
	}
	start := cfg.Company.InvoiceStartNumber
	if ok && stored > start {
		start = stored
	}
	return start, nil
}

func outputObjectKey(sellerID, summaryID uuid.UUID, format models.OutputFormat) string {
	ext := "pdf"
	if format == models.FormatArchive {
		ext = "zip"
	}
	return fmt.Sprintf("%s/%s.%s", sellerID, summaryID, ext)
}
