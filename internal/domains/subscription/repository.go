package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Repository định nghĩa data access cho subscriptions
type Repository interface {
	// Create chèn subscription mới.
	// Returns: ErrAlreadySubscribed khi đụng unique (user_id, publication_id).
	Create(ctx context.Context, s *Subscription) (uuid.UUID, error)

	// FindByUserAndPublication trả về ErrSubscriptionNotFound nếu chưa subscribe
	FindByUserAndPublication(ctx context.Context, userID, publicationID uuid.UUID) (*Subscription, error)

	// EnsureAbsent deletes the pair if present. Deleting a pair that does not
	// exist is a no-op, not an error: unsubscribing twice must succeed.
	EnsureAbsent(ctx context.Context, userID, publicationID uuid.UUID) error

	// SetTier đổi tier (free <-> paid) cho pair đang tồn tại
	SetTier(ctx context.Context, userID, publicationID uuid.UUID, tier string) error

	// ListByUser trả về mọi subscription của một reader
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Subscription, error)

	// ListSubscribers joins users for fan-out delivery.
	// paidOnly giới hạn xuống paid tier (cho bài is_paid).
	ListSubscribers(ctx context.Context, publicationID uuid.UUID, paidOnly bool) ([]Subscriber, error)

	// CountByPublication đếm subscribers hiện tại
	CountByPublication(ctx context.Context, publicationID uuid.UUID) (int64, error)
}
