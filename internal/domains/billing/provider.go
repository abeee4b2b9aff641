package billing

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types phát ra từ payment provider webhook
const (
	EventCheckoutCompleted    = "checkout.completed"
	EventSubscriptionCanceled = "subscription.canceled"
)

// CheckoutParams mô tả một paid-tier checkout cho một reader
type CheckoutParams struct {
	UserID        uuid.UUID
	Email         string
	PublicationID uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// WebhookEvent là event đã verify chữ ký và parse xong
type WebhookEvent struct {
	Type          string
	UserID        uuid.UUID
	PublicationID uuid.UUID
}

// Provider trừu tượng hóa payment gateway. Implementation thật nói chuyện
// với Stripe; tests và local dev dùng mock provider ký webhook bằng cùng
// HMAC scheme.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)

	// CreatePortalSession trả về URL để reader tự quản lý billing
	CreatePortalSession(ctx context.Context, userID uuid.UUID) (string, error)

	// ParseWebhookEvent verifies the signature header before trusting the
	// payload. A bad signature is ErrInvalidWebhook, never a parsed event.
	ParseWebhookEvent(payload []byte, signature string) (*WebhookEvent, error)
}
