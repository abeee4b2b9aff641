package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsletter-backend/internal/domains/notification"
)

const deliveryColumns = `id, post_id, user_id, email, status, attempts, last_error, sent_at, created_at, updated_at`

type postgresDeliveryRepository struct {
	db *pgxpool.Pool
}

func NewPostgresDeliveryRepository(db *pgxpool.Pool) notification.Repository {
	return &postgresDeliveryRepository{db: db}
}

func (r *postgresDeliveryRepository) CreateBatch(ctx context.Context, deliveries []notification.Delivery) (int64, error) {
	if len(deliveries) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO deliveries (post_id, user_id, email, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (post_id, user_id) DO NOTHING`

	for _, d := range deliveries {
		batch.Queue(query, d.PostID, d.UserID, d.Email, notification.StatusPending)
	}

	results := r.db.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for range deliveries {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to insert delivery: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func (r *postgresDeliveryRepository) ListPendingByPost(ctx context.Context, postID uuid.UUID) ([]notification.Delivery, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM deliveries
		WHERE post_id = $1 AND status = $2
		ORDER BY created_at`, deliveryColumns)

	return r.queryDeliveries(ctx, query, postID, notification.StatusPending)
}

func (r *postgresDeliveryRepository) ListRetryable(ctx context.Context, maxAttempts, limit int) ([]notification.Delivery, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM deliveries
		WHERE status = $1 AND attempts < $2
		ORDER BY updated_at
		LIMIT $3`, deliveryColumns)

	return r.queryDeliveries(ctx, query, notification.StatusFailed, maxAttempts, limit)
}

func (r *postgresDeliveryRepository) MarkSent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE deliveries
		SET status = $2, attempts = attempts + 1, last_error = NULL, sent_at = NOW(), updated_at = NOW()
		WHERE id = $1`, id, notification.StatusSent)
	if err != nil {
		return fmt.Errorf("failed to mark delivery sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrDeliveryNotFound
	}
	return nil
}

func (r *postgresDeliveryRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE deliveries
		SET status = $2, attempts = attempts + 1, last_error = $3, updated_at = NOW()
		WHERE id = $1`, id, notification.StatusFailed, reason)
	if err != nil {
		return fmt.Errorf("failed to mark delivery failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return notification.ErrDeliveryNotFound
	}
	return nil
}

func (r *postgresDeliveryRepository) CountByPostAndStatus(ctx context.Context, postID uuid.UUID, status string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM deliveries WHERE post_id = $1 AND status = $2`,
		postID, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count deliveries: %w", err)
	}
	return count, nil
}

func (r *postgresDeliveryRepository) queryDeliveries(ctx context.Context, query string, args ...interface{}) ([]notification.Delivery, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []notification.Delivery
	for rows.Next() {
		var d notification.Delivery
		err := rows.Scan(
			&d.ID, &d.PostID, &d.UserID, &d.Email, &d.Status,
			&d.Attempts, &d.LastError, &d.SentAt, &d.CreatedAt, &d.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, notification.ErrDeliveryNotFound
			}
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate deliveries: %w", err)
	}
	return deliveries, nil
}
