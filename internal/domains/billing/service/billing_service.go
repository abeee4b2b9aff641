package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"newsletter-backend/internal/config"
	"newsletter-backend/internal/domains/billing"
	"newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/domains/subscription"
	"newsletter-backend/internal/domains/user"
	"newsletter-backend/pkg/logger"
)

type billingService struct {
	provider         billing.Provider
	publicationRepo  publication.Repository
	subscriptionRepo subscription.Repository
	userRepo         user.Repository
	cfg              config.BillingConfig
}

func NewBillingService(
	provider billing.Provider,
	publicationRepo publication.Repository,
	subscriptionRepo subscription.Repository,
	userRepo user.Repository,
	cfg config.BillingConfig,
) billing.Service {
	return &billingService{
		provider:         provider,
		publicationRepo:  publicationRepo,
		subscriptionRepo: subscriptionRepo,
		userRepo:         userRepo,
		cfg:              cfg,
	}
}

func (s *billingService) StartCheckout(ctx context.Context, userID, publicationID uuid.UUID) (*billing.CheckoutSession, error) {
	pub, err := s.publicationRepo.FindByID(ctx, publicationID)
	if err != nil {
		return nil, err
	}
	if !pub.HasPaidTier() {
		return nil, billing.ErrNoPaidTier
	}

	u, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.provider.CreateCheckoutSession(ctx, &billing.CheckoutParams{
		UserID:        u.ID,
		Email:         u.Email,
		PublicationID: pub.ID,
		Amount:        *pub.MonthlyPrice,
		Currency:      pub.Currency,
		SuccessURL:    s.cfg.SuccessURL,
		CancelURL:     s.cfg.CancelURL,
	})
}

func (s *billingService) PortalURL(ctx context.Context, userID uuid.UUID) (string, error) {
	return s.provider.CreatePortalSession(ctx, userID)
}

// HandleWebhook áp dụng event lên subscription tier.
//
// Missing pairs are acknowledged: the reader may have unsubscribed between
// the provider event and delivery, and a webhook retry loop will not bring
// the row back.
func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhookEvent(payload, signature)
	if err != nil {
		return err
	}

	switch event.Type {
	case billing.EventCheckoutCompleted:
		return s.upgrade(ctx, event.UserID, event.PublicationID)
	case billing.EventSubscriptionCanceled:
		return s.downgrade(ctx, event.UserID, event.PublicationID)
	default:
		return billing.ErrInvalidWebhook
	}
}

func (s *billingService) upgrade(ctx context.Context, userID, publicationID uuid.UUID) error {
	err := s.subscriptionRepo.SetTier(ctx, userID, publicationID, subscription.TierPaid)
	if err == nil {
		logger.Info("💳 Subscription upgraded to paid", map[string]interface{}{
			"user_id":        userID.String(),
			"publication_id": publicationID.String(),
		})
		return nil
	}
	if !errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return err
	}

	// Paid checkout without a prior free subscription: create the pair
	// directly at paid tier.
	_, err = s.subscriptionRepo.Create(ctx, &subscription.Subscription{
		UserID:        userID,
		PublicationID: publicationID,
		Tier:          subscription.TierPaid,
	})
	if errors.Is(err, subscription.ErrAlreadySubscribed) {
		return s.subscriptionRepo.SetTier(ctx, userID, publicationID, subscription.TierPaid)
	}
	return err
}

func (s *billingService) downgrade(ctx context.Context, userID, publicationID uuid.UUID) error {
	err := s.subscriptionRepo.SetTier(ctx, userID, publicationID, subscription.TierFree)
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		logger.Warn("Cancellation for missing subscription, acknowledging", map[string]interface{}{
			"user_id":        userID.String(),
			"publication_id": publicationID.String(),
		})
		return nil
	}
	return err
}
