package caching

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"invoicekit/internal/models"
)

// CacheService caches seller invoice configs between batches and issues
// the per-seller counter lease that serializes same-seller generation runs.
type CacheService interface {
	// Config caching
	GetConfig(ctx context.Context, sellerID uuid.UUID) (*models.InvoiceConfig, error)
	SetConfig(ctx context.Context, sellerID uuid.UUID, cfg *models.InvoiceConfig, ttl time.Duration) error
	DeleteConfig(ctx context.Context, sellerID uuid.UUID) error

	// Counter lease. Two concurrent batches against the same seller's
	// counter would compute overlapping invoice number ranges, so the
	// service layer takes this lease before reading the counter and
	// releases it after persisting next_start.
	AcquireCounterLease(ctx context.Context, sellerID uuid.UUID, ttl time.Duration) (string, error)
	ReleaseCounterLease(ctx context.Context, sellerID uuid.UUID, token string) error
}

// ErrLeaseHeld is returned when another batch already holds the seller's
// counter lease.
var ErrLeaseHeld = fmt.Errorf("another batch is running for this seller")

type redisCacheService struct {
	client *redis.Client
}

// NewRedisCacheService connects to Redis and returns the cache service.
func NewRedisCacheService(addr, password string, db int) CacheService {
	parsedAddr := addr
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		if hostPort := strings.TrimPrefix(strings.TrimPrefix(addr, "redis://"), "rediss://"); hostPort != addr {
			parsedAddr = hostPort
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     parsedAddr,
		Password: password,
		DB:       db,
	})

	if pingErr := client.Ping(context.Background()).Err(); pingErr != nil {
		log.Printf("WARN: Redis ping failed on initialization: %v (address: %s)", pingErr, parsedAddr)
	}

	return &redisCacheService{client: client}
}

func configKey(sellerID uuid.UUID) string {
	return fmt.Sprintf("invoicekit:config:%s", sellerID.String())
}

func leaseKey(sellerID uuid.UUID) string {
	return fmt.Sprintf("invoicekit:counter-lease:%s", sellerID.String())
}

func (r *redisCacheService) GetConfig(ctx context.Context, sellerID uuid.UUID) (*models.InvoiceConfig, error) {
	data, err := r.client.Get(ctx, configKey(sellerID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // cache miss
		}
		return nil, err
	}

	var cfg models.InvoiceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *redisCacheService) SetConfig(ctx context.Context, sellerID uuid.UUID, cfg *models.InvoiceConfig, ttl time.Duration) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, configKey(sellerID), data, ttl).Err()
}

func (r *redisCacheService) DeleteConfig(ctx context.Context, sellerID uuid.UUID) error {
	return r.client.Del(ctx, configKey(sellerID)).Err()
}

func (r *redisCacheService) AcquireCounterLease(ctx context.Context, sellerID uuid.UUID, ttl time.Duration) (string, error) {
	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, leaseKey(sellerID), token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrLeaseHeld
	}
	return token, nil
}

// releaseScript deletes the lease only if the caller still holds it, so an
// expired lease taken over by another batch is never released from under it.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

func (r *redisCacheService) ReleaseCounterLease(ctx context.Context, sellerID uuid.UUID, token string) error {
	return releaseScript.Run(ctx, r.client, []string{leaseKey(sellerID)}, token).Err()
}
