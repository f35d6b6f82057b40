package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"invoicekit/internal/caching"
	"invoicekit/internal/models"
	"invoicekit/internal/repositories"
	"invoicekit/internal/taxrules"
)

const configCacheTTL = 15 * time.Minute

// ConfigServiceInterface manages the stored seller profile and rate
// schedule.
type ConfigServiceInterface interface {
	GetConfig(ctx context.Context, sellerID uuid.UUID) (*models.InvoiceConfig, error)
	SaveConfig(ctx context.Context, sellerID uuid.UUID, cfg *models.InvoiceConfig) ([]string, error)
}

type configService struct {
	configRepo repositories.ConfigRepository
	cacheSvc   caching.CacheService
}

// NewConfigService creates a new config service
func NewConfigService(configRepo repositories.ConfigRepository, cacheSvc caching.CacheService) ConfigServiceInterface {
	return &configService{configRepo: configRepo, cacheSvc: cacheSvc}
}

// GetConfig returns the seller's stored config, preferring the cache.
func (s *configService) GetConfig(ctx context.Context, sellerID uuid.UUID) (*models.InvoiceConfig, error) {
	cached, err := s.cacheSvc.GetConfig(ctx, sellerID)
	if err != nil {
		log.Printf("WARN: config cache read failed for seller %s: %v", sellerID, err)
	}
	if cached != nil {
		return cached, nil
	}

	cfg, err := s.configRepo.GetConfig(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	if err := s.cacheSvc.SetConfig(ctx, sellerID, cfg, configCacheTTL); err != nil {
		log.Printf("WARN: config cache write failed for seller %s: %v", sellerID, err)
	}
	return cfg, nil
}

// SaveConfig validates and persists the config, invalidating the cache.
// Overlapping tax rules are legal but suspicious, so their warnings are
// returned for the caller to surface.
func (s *configService) SaveConfig(ctx context.Context, sellerID uuid.UUID, cfg *models.InvoiceConfig) ([]string, error) {
	if err := cfg.Company.Validate(); err != nil {
		return nil, fmt.Errorf("invalid company config: %w", err)
	}
	warnings, err := taxrules.Validate(cfg.TaxRules)
	if err != nil {
		return nil, err
	}

	if err := s.configRepo.SaveConfig(ctx, sellerID, cfg); err != nil {
		return nil, err
	}
	if err := s.cacheSvc.DeleteConfig(ctx, sellerID); err != nil {
		log.Printf("WARN: config cache invalidation failed for seller %s: %v", sellerID, err)
	}
	return warnings, nil
}
