package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"newsletter-backend/internal/domains/notification"
	"newsletter-backend/internal/shared"
)

// PostPublishedHandler fan-out email tới subscribers khi bài được publish lần đầu
type PostPublishedHandler struct {
	notificationService notification.Service
}

func NewPostPublishedHandler(notificationService notification.Service) *PostPublishedHandler {
	return &PostPublishedHandler{
		notificationService: notificationService,
	}
}

// ProcessTask xử lý background job fan-out
func (h *PostPublishedHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.PostPublishedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal PostPublished payload")
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	postID, err := uuid.Parse(payload.PostID)
	if err != nil {
		log.Error().Str("post_id", payload.PostID).Msg("Invalid post id in PostPublished payload")
		return fmt.Errorf("parse post id: %w", err)
	}

	log.Info().
		Str("post_id", payload.PostID).
		Msg("Fanning out post notification")

	if err := h.notificationService.FanOutPost(ctx, postID); err != nil {
		log.Error().
			Err(err).
			Str("post_id", payload.PostID).
			Msg("Failed to fan out post notification")
		return fmt.Errorf("fan out post: %w", err)
	}

	return nil
}
