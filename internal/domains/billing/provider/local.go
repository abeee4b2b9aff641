package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/billing"
)

// webhookPayload là wire format của events từ provider
type webhookPayload struct {
	Type          string `json:"type"`
	UserID        string `json:"user_id"`
	PublicationID string `json:"publication_id"`
}

// LocalProvider là Stripe-shaped provider cho local dev và tests: không gọi
// network, session URLs trỏ về chính API, webhooks được ký bằng
// HMAC-SHA256(secret, payload) trong header signature (hex).
type LocalProvider struct {
	apiKey        string
	webhookSecret []byte
	successURL    string
	cancelURL     string
}

func NewLocalProvider(apiKey, webhookSecret, successURL, cancelURL string) *LocalProvider {
	return &LocalProvider{
		apiKey:        apiKey,
		webhookSecret: []byte(webhookSecret),
		successURL:    successURL,
		cancelURL:     cancelURL,
	}
}

func (p *LocalProvider) CreateCheckoutSession(_ context.Context, params *billing.CheckoutParams) (*billing.CheckoutSession, error) {
	if params.Amount.IsNegative() || params.Amount.IsZero() {
		return nil, billing.ErrCheckoutUnavailable
	}

	id := "cs_local_" + uuid.NewString()
	return &billing.CheckoutSession{
		ID: id,
		URL: fmt.Sprintf("%s?session=%s&amount=%s&currency=%s",
			p.successURL, id, params.Amount.StringFixed(2), params.Currency),
	}, nil
}

func (p *LocalProvider) CreatePortalSession(_ context.Context, userID uuid.UUID) (string, error) {
	return fmt.Sprintf("%s?portal=%s", p.successURL, userID), nil
}

func (p *LocalProvider) ParseWebhookEvent(payload []byte, signature string) (*billing.WebhookEvent, error) {
	expected := p.Sign(payload)
	provided, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(provided, expected) {
		return nil, billing.ErrInvalidWebhook
	}

	var wp webhookPayload
	if err := json.Unmarshal(payload, &wp); err != nil {
		return nil, billing.ErrInvalidWebhook
	}

	userID, err := uuid.Parse(wp.UserID)
	if err != nil {
		return nil, billing.ErrInvalidWebhook
	}
	publicationID, err := uuid.Parse(wp.PublicationID)
	if err != nil {
		return nil, billing.ErrInvalidWebhook
	}

	switch wp.Type {
	case billing.EventCheckoutCompleted, billing.EventSubscriptionCanceled:
	default:
		return nil, billing.ErrInvalidWebhook
	}

	return &billing.WebhookEvent{
		Type:          wp.Type,
		UserID:        userID,
		PublicationID: publicationID,
	}, nil
}

// Sign trả về raw HMAC của payload; tests dùng để tạo webhook hợp lệ
func (p *LocalProvider) Sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, p.webhookSecret)
	mac.Write(payload)
	return mac.Sum(nil)
}
