package service

import (
	"context"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"newsletter-backend/internal/domains/notification"
	"newsletter-backend/internal/domains/post"
	"newsletter-backend/internal/domains/publication"
	"newsletter-backend/internal/domains/subscription"
	"newsletter-backend/pkg/actiontoken"
	"newsletter-backend/pkg/logger"
)

const (
	maxDeliveryAttempts = 5
	retryBatchSize      = 100
	excerptLength       = 280
)

type notificationService struct {
	repo             notification.Repository
	postRepo         post.Repository
	publicationRepo  publication.Repository
	subscriptionRepo subscription.Repository
	sender           notification.EmailSender
	tokens           *actiontoken.Codec

	baseURL string // API origin, unsubscribe endpoints sống ở đây
	webURL  string // reader-facing frontend
}

func NewNotificationService(
	repo notification.Repository,
	postRepo post.Repository,
	publicationRepo publication.Repository,
	subscriptionRepo subscription.Repository,
	sender notification.EmailSender,
	tokens *actiontoken.Codec,
	baseURL, webURL string,
) notification.Service {
	return &notificationService{
		repo:             repo,
		postRepo:         postRepo,
		publicationRepo:  publicationRepo,
		subscriptionRepo: subscriptionRepo,
		sender:           sender,
		tokens:           tokens,
		baseURL:          baseURL,
		webURL:           webURL,
	}
}

// FanOutPost gửi email bài mới tới subscribers.
//
// Two phases: first insert pending delivery rows (ON CONFLICT DO NOTHING
// makes a re-run of the same task idempotent), then walk the pending rows
// and send. One bad address never aborts the batch.
func (s *notificationService) FanOutPost(ctx context.Context, postID uuid.UUID) error {
	p, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		return err
	}
	if !p.IsPublished {
		// Unpublished between enqueue and processing; nothing to send.
		logger.Warn("Skipping fan-out for unpublished post", map[string]interface{}{
			"post_id": postID.String(),
		})
		return nil
	}

	pub, err := s.publicationRepo.FindByID(ctx, p.PublicationID)
	if err != nil {
		return err
	}

	subscribers, err := s.subscriptionRepo.ListSubscribers(ctx, pub.ID, p.IsPaid)
	if err != nil {
		return err
	}
	if len(subscribers) == 0 {
		return nil
	}

	deliveries := make([]notification.Delivery, 0, len(subscribers))
	for _, sub := range subscribers {
		deliveries = append(deliveries, notification.Delivery{
			PostID: p.ID,
			UserID: sub.UserID,
			Email:  sub.Email,
		})
	}

	inserted, err := s.repo.CreateBatch(ctx, deliveries)
	if err != nil {
		return err
	}

	pending, err := s.repo.ListPendingByPost(ctx, p.ID)
	if err != nil {
		return err
	}

	logger.Info("📨 Fanning out post notification", map[string]interface{}{
		"post_id":     p.ID.String(),
		"publication": pub.Slug,
		"subscribers": len(subscribers),
		"new_rows":    inserted,
		"pending":     len(pending),
	})

	for i := range pending {
		s.deliver(ctx, &pending[i], p, pub)
	}
	return nil
}

func (s *notificationService) RetryFailedDeliveries(ctx context.Context) (int, error) {
	failed, err := s.repo.ListRetryable(ctx, maxDeliveryAttempts, retryBatchSize)
	if err != nil {
		return 0, err
	}

	retried := 0
	for i := range failed {
		d := &failed[i]

		p, err := s.postRepo.FindByID(ctx, d.PostID)
		if err != nil {
			logger.Warn("Skipping retry, post gone", map[string]interface{}{
				"delivery_id": d.ID.String(),
			})
			continue
		}
		pub, err := s.publicationRepo.FindByID(ctx, p.PublicationID)
		if err != nil {
			continue
		}

		s.deliver(ctx, d, p, pub)
		retried++
	}
	return retried, nil
}

// deliver gửi một email và cập nhật delivery record. Mỗi recipient nhận
// token riêng, mint tại thời điểm gửi để TTL tính từ lúc email rời server.
func (s *notificationService) deliver(ctx context.Context, d *notification.Delivery, p *post.Post, pub *publication.Publication) {
	token, err := s.tokens.Issue(d.Email, pub.ID)
	if err != nil {
		s.fail(ctx, d, fmt.Sprintf("issue token: %v", err))
		return
	}

	email := &notification.PostEmail{
		To:              d.Email,
		PublicationName: pub.Name,
		PostTitle:       p.Title,
		PostExcerpt:     post.Excerpt(p.Body, excerptLength),
		PostURL:         fmt.Sprintf("%s/%s/posts/%s", s.webURL, pub.Slug, p.ID),
		UnsubscribeURL:  fmt.Sprintf("%s/unsubscribe?token=%s", s.baseURL, url.QueryEscape(token)),
		OneClickURL:     fmt.Sprintf("%s/unsubscribe?token=%s", s.baseURL, url.QueryEscape(token)),
	}

	if err := s.sender.SendPostNotification(ctx, email); err != nil {
		s.fail(ctx, d, err.Error())
		return
	}

	if err := s.repo.MarkSent(ctx, d.ID); err != nil {
		logger.Error("Failed to mark delivery sent", err)
	}
}

func (s *notificationService) fail(ctx context.Context, d *notification.Delivery, reason string) {
	logger.Warn("Delivery failed", map[string]interface{}{
		"delivery_id": d.ID.String(),
		"email":       d.Email,
		"reason":      reason,
	})
	if err := s.repo.MarkFailed(ctx, d.ID, reason); err != nil {
		logger.Error("Failed to mark delivery failed", err)
	}
}
