package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"newsletter-backend/internal/domains/notification"
)

// RetryFailedHandler chạy theo lịch, gửi lại deliveries đã fail
type RetryFailedHandler struct {
	notificationService notification.Service
}

func NewRetryFailedHandler(notificationService notification.Service) *RetryFailedHandler {
	return &RetryFailedHandler{
		notificationService: notificationService,
	}
}

// ProcessTask xử lý scheduled retry job
func (h *RetryFailedHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	retried, err := h.notificationService.RetryFailedDeliveries(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to retry deliveries")
		return fmt.Errorf("retry deliveries: %w", err)
	}

	if retried > 0 {
		log.Info().Int("retried", retried).Msg("Retried failed deliveries")
	}
	return nil
}
