package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsletter-backend/internal/domains/subscription"
)

const pgUniqueViolation = "23505"

type postgresSubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewPostgresSubscriptionRepository(db *pgxpool.Pool) subscription.Repository {
	return &postgresSubscriptionRepository{db: db}
}

func (r *postgresSubscriptionRepository) Create(ctx context.Context, s *subscription.Subscription) (uuid.UUID, error) {
	query := `
		INSERT INTO subscriptions (user_id, publication_id, tier)
		VALUES ($1, $2, $3)
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRow(ctx, query, s.UserID, s.PublicationID, s.Tier).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return uuid.Nil, subscription.ErrAlreadySubscribed
		}
		return uuid.Nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return id, nil
}

func (r *postgresSubscriptionRepository) FindByUserAndPublication(ctx context.Context, userID, publicationID uuid.UUID) (*subscription.Subscription, error) {
	query := `
		SELECT id, user_id, publication_id, tier, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1 AND publication_id = $2`

	var s subscription.Subscription
	err := r.db.QueryRow(ctx, query, userID, publicationID).Scan(
		&s.ID, &s.UserID, &s.PublicationID, &s.Tier, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, subscription.ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}
	return &s, nil
}

// EnsureAbsent cố ý bỏ qua RowsAffected: 0 rows nghĩa là đã unsubscribed rồi.
func (r *postgresSubscriptionRepository) EnsureAbsent(ctx context.Context, userID, publicationID uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM subscriptions WHERE user_id = $1 AND publication_id = $2`,
		userID, publicationID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}
	return nil
}

func (r *postgresSubscriptionRepository) SetTier(ctx context.Context, userID, publicationID uuid.UUID, tier string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET tier = $3, updated_at = NOW() WHERE user_id = $1 AND publication_id = $2`,
		userID, publicationID, tier,
	)
	if err != nil {
		return fmt.Errorf("failed to set subscription tier: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscription.ErrSubscriptionNotFound
	}
	return nil
}

func (r *postgresSubscriptionRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]subscription.Subscription, error) {
	query := `
		SELECT id, user_id, publication_id, tier, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []subscription.Subscription
	for rows.Next() {
		var s subscription.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.PublicationID, &s.Tier, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscriptions: %w", err)
	}
	return subs, nil
}

// ListSubscribers chỉ lấy users đã verify email, tránh gửi tới địa chỉ chưa xác nhận.
func (r *postgresSubscriptionRepository) ListSubscribers(ctx context.Context, publicationID uuid.UUID, paidOnly bool) ([]subscription.Subscriber, error) {
	query := `
		SELECT s.user_id, u.email, s.tier
		FROM subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE s.publication_id = $1 AND u.is_verified = TRUE`
	if paidOnly {
		query += ` AND s.tier = 'paid'`
	}

	rows, err := r.db.Query(ctx, query, publicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscribers: %w", err)
	}
	defer rows.Close()

	var subs []subscription.Subscriber
	for rows.Next() {
		var s subscription.Subscriber
		if err := rows.Scan(&s.UserID, &s.Email, &s.Tier); err != nil {
			return nil, fmt.Errorf("failed to scan subscriber: %w", err)
		}
		subs = append(subs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate subscribers: %w", err)
	}
	return subs, nil
}

func (r *postgresSubscriptionRepository) CountByPublication(ctx context.Context, publicationID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE publication_id = $1`, publicationID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return count, nil
}
