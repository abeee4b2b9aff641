package notification

import (
	"context"

	"github.com/google/uuid"
)

// Repository định nghĩa data access cho delivery records
type Repository interface {
	// CreateBatch chèn pending deliveries cho một post.
	// ON CONFLICT (post_id, user_id) DO NOTHING: fan-out chạy lại không
	// nhân đôi email.
	CreateBatch(ctx context.Context, deliveries []Delivery) (int64, error)

	// ListPendingByPost trả về deliveries chưa gửi của một post
	ListPendingByPost(ctx context.Context, postID uuid.UUID) ([]Delivery, error)

	// ListRetryable trả về failed deliveries còn dưới maxAttempts
	ListRetryable(ctx context.Context, maxAttempts, limit int) ([]Delivery, error)

	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error

	// CountByPostAndStatus cho publisher dashboard
	CountByPostAndStatus(ctx context.Context, postID uuid.UUID, status string) (int64, error)
}
