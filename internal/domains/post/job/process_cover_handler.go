package job

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"newsletter-backend/internal/domains/post"
	"newsletter-backend/internal/shared"
)

// CoverStorage là phần storage mà cover job cần
type CoverStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
}

// CoverProcessor resize cover thành variants
type CoverProcessor interface {
	ValidateImage(data []byte) error
	ProcessCover(data []byte) (map[string][]byte, error)
}

// ProcessCoverHandler tạo resized cover variants cho post
type ProcessCoverHandler struct {
	postRepo  post.Repository
	storage   CoverStorage
	processor CoverProcessor
}

func NewProcessCoverHandler(postRepo post.Repository, storage CoverStorage, processor CoverProcessor) *ProcessCoverHandler {
	return &ProcessCoverHandler{
		postRepo:  postRepo,
		storage:   storage,
		processor: processor,
	}
}

// ProcessTask xử lý background job resize cover
func (h *ProcessCoverHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.ProcessCoverImagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal ProcessCoverImage payload")
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	postID, err := uuid.Parse(payload.PostID)
	if err != nil {
		return fmt.Errorf("parse post id: %w", err)
	}

	data, err := h.storage.Download(ctx, payload.Key)
	if err != nil {
		return fmt.Errorf("download original: %w", err)
	}
	if err := h.processor.ValidateImage(data); err != nil {
		// Corrupt upload cannot succeed on retry.
		log.Warn().
			Str("post_id", payload.PostID).
			Err(err).
			Msg("Skipping cover processing for invalid image")
		return nil
	}

	variants, err := h.processor.ProcessCover(data)
	if err != nil {
		return fmt.Errorf("process cover: %w", err)
	}

	dir := path.Dir(payload.Key)
	var heroURL string
	for name, body := range variants {
		url, err := h.storage.Upload(ctx, fmt.Sprintf("%s/cover_%s.jpg", dir, name), body, "image/jpeg")
		if err != nil {
			return fmt.Errorf("upload %s variant: %w", name, err)
		}
		if name == "hero" {
			heroURL = url
		}
	}

	if heroURL != "" {
		if err := h.postRepo.SetCoverImage(ctx, postID, heroURL); err != nil {
			return fmt.Errorf("set cover image: %w", err)
		}
	}

	log.Info().
		Str("post_id", payload.PostID).
		Int("variants", len(variants)).
		Msg("Cover image processed")

	return nil
}
