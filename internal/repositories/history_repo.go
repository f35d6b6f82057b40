package repositories

import (
	"context"
	"time"

	"invoicekit/internal/models"

	"github.com/google/uuid"
)

// HistoryRepository persists the per-batch audit summary. Invoice contents
// are never stored, only the summary row and the storage key of the
// generated output.
type HistoryRepository interface {
	Record(ctx context.Context, summary *models.BatchSummary) error
	ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*models.BatchSummary, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
}

type historyRepo struct {
	db Database
}

// NewHistoryRepo creates a HistoryRepository backed by Postgres.
func NewHistoryRepo(db Database) HistoryRepository {
	return &historyRepo{db: db}
}

func (r *historyRepo) Record(ctx context.Context, summary *models.BatchSummary) error {
	query := `
		INSERT INTO batch_history (id, seller_id, generated_at, order_count, first_number, last_number, format, object_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query, summary.ID, summary.SellerID, summary.GeneratedAt,
		summary.OrderCount, summary.FirstNumber, summary.LastNumber, string(summary.Format), summary.ObjectKey)
	return err
}

func (r *historyRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit, offset int) ([]*models.BatchSummary, error) {
	query := `
		SELECT id, seller_id, generated_at, order_count, first_number, last_number, format, object_key
		FROM batch_history
		WHERE seller_id = $1
		ORDER BY generated_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, sellerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*models.BatchSummary
	for rows.Next() {
		s := &models.BatchSummary{}
		var format string
		if err := rows.Scan(&s.ID, &s.SellerID, &s.GeneratedAt, &s.OrderCount,
			&s.FirstNumber, &s.LastNumber, &format, &s.ObjectKey); err != nil {
			return nil, err
		}
		s.Format = models.OutputFormat(format)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// DeleteOlderThan removes summaries generated before cutoff and returns the
// storage keys of their outputs so the caller can delete the objects too.
func (r *historyRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error) {
	query := `
		DELETE FROM batch_history
		WHERE generated_at < $1
		RETURNING object_key
	`
	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if key != "" {
			keys = append(keys, key)
		}
	}
	return keys, rows.Err()
}
