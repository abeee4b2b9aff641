package notification

import (
	"context"

	"github.com/google/uuid"
)

// Service định nghĩa notification fan-out logic
type Service interface {
	// FanOutPost creates pending deliveries for every eligible subscriber of
	// the post's publication and sends them. Paid posts go to paid-tier
	// subscribers only. Safe to run more than once for the same post.
	FanOutPost(ctx context.Context, postID uuid.UUID) error

	// RetryFailedDeliveries gửi lại failed deliveries (scheduled job).
	// Trả về số deliveries đã retry.
	RetryFailedDeliveries(ctx context.Context) (int, error)
}
