package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicekit/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the subset of pgxpool.Pool the repositories use; pgxmock
// satisfies it in tests.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// ConfigRepository is the config store collaborator: it persists the seller
// profile, the tax rule schedule, and the invoice counter, all keyed by
// seller identity. The pipeline itself never writes here; the service layer
// does, after a batch fully succeeds.
type ConfigRepository interface {
	GetConfig(ctx context.Context, sellerID uuid.UUID) (*models.InvoiceConfig, error)
	SaveConfig(ctx context.Context, sellerID uuid.UUID, cfg *models.InvoiceConfig) error
	GetCounter(ctx context.Context, sellerID uuid.UUID) (int64, bool, error)
	SetCounter(ctx context.Context, sellerID uuid.UUID, next int64) error
}

// ErrConfigNotFound is returned when a seller has no stored profile.
var ErrConfigNotFound = errors.New("seller config not found")

type configRepo struct {
	db Database
}

// NewConfigRepo creates a ConfigRepository backed by Postgres.
func NewConfigRepo(db Database) ConfigRepository {
	return &configRepo{db: db}
}

func (r *configRepo) GetConfig(ctx context.Context, sellerID uuid.UUID) (*models.InvoiceConfig, error) {
	cfg := &models.InvoiceConfig{}
	query := `
		SELECT name, gstin, address, email, website, seller_state, seller_state_code,
		       shipped_from, hsn_code, transport_mode, invoice_prefix, invoice_start_number
		FROM seller_configs
		WHERE seller_id = $1
	`
	c := &cfg.Company
	err := r.db.QueryRow(ctx, query, sellerID).Scan(
		&c.Name, &c.GSTIN, &c.Address, &c.Email, &c.Website, &c.SellerState, &c.SellerStateCode,
		&c.ShippedFrom, &c.HSNCode, &c.TransportMode, &c.InvoicePrefix, &c.InvoiceStartNumber,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	rules, err := r.getTaxRules(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	cfg.TaxRules = rules
	return cfg, nil
}

func (r *configRepo) getTaxRules(ctx context.Context, sellerID uuid.UUID) ([]models.TaxRule, error) {
	query := `
		SELECT from_date, to_date, rate
		FROM tax_rules
		WHERE seller_id = $1
		ORDER BY position
	`
	rows, err := r.db.Query(ctx, query, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.TaxRule
	for rows.Next() {
		var rule models.TaxRule
		var to *time.Time
		if err := rows.Scan(&rule.From, &to, &rule.Rate); err != nil {
			return nil, err
		}
		rule.To = to
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (r *configRepo) SaveConfig(ctx context.Context, sellerID uuid.UUID, cfg *models.InvoiceConfig) error {
	query := `
		INSERT INTO seller_configs (seller_id, name, gstin, address, email, website, seller_state, seller_state_code,
		                            shipped_from, hsn_code, transport_mode, invoice_prefix, invoice_start_number, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		ON CONFLICT (seller_id) DO UPDATE SET
			name = EXCLUDED.name, gstin = EXCLUDED.gstin, address = EXCLUDED.address,
			email = EXCLUDED.email, website = EXCLUDED.website, seller_state = EXCLUDED.seller_state,
			seller_state_code = EXCLUDED.seller_state_code, shipped_from = EXCLUDED.shipped_from,
			hsn_code = EXCLUDED.hsn_code, transport_mode = EXCLUDED.transport_mode,
			invoice_prefix = EXCLUDED.invoice_prefix, invoice_start_number = EXCLUDED.invoice_start_number,
			updated_at = NOW()
	`
	c := &cfg.Company
	_, err := r.db.Exec(ctx, query, sellerID, c.Name, c.GSTIN, c.Address, c.Email, c.Website,
		c.SellerState, c.SellerStateCode, c.ShippedFrom, c.HSNCode, c.TransportMode,
		c.InvoicePrefix, c.InvoiceStartNumber)
	if err != nil {
		return fmt.Errorf("saving seller config: %w", err)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM tax_rules WHERE seller_id = $1`, sellerID); err != nil {
		return fmt.Errorf("clearing tax rules: %w", err)
	}
	for i, rule := range cfg.TaxRules {
		_, err := r.db.Exec(ctx, `
			INSERT INTO tax_rules (seller_id, position, from_date, to_date, rate)
			VALUES ($1, $2, $3, $4, $5)
		`, sellerID, i, rule.From, rule.To, rule.Rate)
		if err != nil {
			return fmt.Errorf("saving tax rule %d: %w", i, err)
		}
	}
	return nil
}

func (r *configRepo) GetCounter(ctx context.Context, sellerID uuid.UUID) (int64, bool, error) {
	var next int64
	query := `SELECT next_number FROM invoice_counters WHERE seller_id = $1`
	err := r.db.QueryRow(ctx, query, sellerID).Scan(&next)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return next, true, nil
}

func (r *configRepo) SetCounter(ctx context.Context, sellerID uuid.UUID, next int64) error {
	query := `
		INSERT INTO invoice_counters (seller_id, next_number, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (seller_id) DO UPDATE SET next_number = EXCLUDED.next_number, updated_at = NOW()
	`
	_, err := r.db.Exec(ctx, query, sellerID, next)
	return err
}
