package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/domains/subscription"
	"newsletter-backend/internal/domains/user"
	"newsletter-backend/pkg/actiontoken"
	"newsletter-backend/pkg/logger"
)

type subscriptionService struct {
	repo            subscription.Repository
	publicationRepo publication.Repository
	userRepo        user.Repository
	tokens          *actiontoken.Codec
}

func NewSubscriptionService(
	repo subscription.Repository,
	publicationRepo publication.Repository,
	userRepo user.Repository,
	tokens *actiontoken.Codec,
) subscription.Service {
	return &subscriptionService{
		repo:            repo,
		publicationRepo: publicationRepo,
		userRepo:        userRepo,
		tokens:          tokens,
	}
}

// Subscribe đăng ký free tier. Double-subscribe không phải lỗi: đụng unique
// constraint thì trả về subscription đang có.
func (s *subscriptionService) Subscribe(ctx context.Context, userID uuid.UUID, req *subscription.SubscribeRequest) (*subscription.Subscription, error) {
	publicationID, err := uuid.Parse(req.PublicationID)
	if err != nil {
		return nil, publication.ErrPublicationNotFound
	}

	pub, err := s.publicationRepo.FindByID(ctx, publicationID)
	if err != nil {
		return nil, err
	}

	sub := &subscription.Subscription{
		UserID:        userID,
		PublicationID: pub.ID,
		Tier:          subscription.TierFree,
	}

	if _, err := s.repo.Create(ctx, sub); err != nil {
		if errors.Is(err, subscription.ErrAlreadySubscribed) {
			return s.repo.FindByUserAndPublication(ctx, userID, pub.ID)
		}
		return nil, err
	}

	return s.repo.FindByUserAndPublication(ctx, userID, pub.ID)
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, userID, publicationID uuid.UUID) error {
	return s.repo.EnsureAbsent(ctx, userID, publicationID)
}

// UnsubscribeByToken thực hiện one-click unsubscribe từ email link.
//
// Only a bad token is an error. A valid token whose address has no matching
// account, or no subscription to remove, still reports success: the caller
// learns nothing about which addresses exist, and clicking a link twice
// behaves like clicking it once.
func (s *subscriptionService) UnsubscribeByToken(ctx context.Context, token string) error {
	payload, err := s.tokens.Verify(token)
	if err != nil {
		return err
	}

	u, err := s.userRepo.FindByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			logger.Debug("unsubscribe token for unknown email, reporting success")
			return nil
		}
		return err
	}

	return s.repo.EnsureAbsent(ctx, u.ID, payload.PublicationID)
}

func (s *subscriptionService) VerifyToken(ctx context.Context, token string) error {
	_, err := s.tokens.Verify(token)
	return err
}

func (s *subscriptionService) ListMine(ctx context.Context, userID uuid.UUID) ([]subscription.Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *subscriptionService) ListSubscribers(ctx context.Context, publicationID uuid.UUID, paidOnly bool) ([]subscription.Subscriber, error) {
	return s.repo.ListSubscribers(ctx, publicationID, paidOnly)
}
