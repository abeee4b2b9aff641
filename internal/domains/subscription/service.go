package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Service định nghĩa business logic cho subscriptions
type Service interface {
	// Subscribe đăng ký reader vào publication (free tier).
	// Subscribing twice returns the existing subscription, not an error.
	Subscribe(ctx context.Context, userID uuid.UUID, req *SubscribeRequest) (*Subscription, error)

	// Unsubscribe hủy đăng ký của chính caller (authenticated path)
	Unsubscribe(ctx context.Context, userID, publicationID uuid.UUID) error

	// UnsubscribeByToken is the email-link path. The token alone authenticates
	// the action; no session is required. Idempotent: a token for an address
	// that is not subscribed (or no longer exists) still succeeds.
	UnsubscribeByToken(ctx context.Context, token string) error

	// VerifyToken kiểm tra token mà không thực hiện unsubscribe,
	// dùng cho trang confirm (GET).
	VerifyToken(ctx context.Context, token string) error

	ListMine(ctx context.Context, userID uuid.UUID) ([]Subscription, error)
	ListSubscribers(ctx context.Context, publicationID uuid.UUID, paidOnly bool) ([]Subscriber, error)
}
