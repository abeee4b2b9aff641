package billing

import (
	"context"

	"github.com/google/uuid"
)

// Service định nghĩa paid-tier billing flow
type Service interface {
	// StartCheckout tạo checkout session cho paid tier của một publication.
	// Returns: ErrNoPaidTier nếu publication không bán paid tier.
	StartCheckout(ctx context.Context, userID, publicationID uuid.UUID) (*CheckoutSession, error)

	// PortalURL trả về self-service billing portal cho reader
	PortalURL(ctx context.Context, userID uuid.UUID) (string, error)

	// HandleWebhook verifies and applies a provider event: checkout
	// completed upgrades the pair to paid, cancellation drops it to free.
	// Events for pairs that no longer exist are acknowledged, not retried.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}
