package job

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"newsletter-backend/internal/domains/user"
)

// CleanupTokensHandler xóa verification tokens đã hết hạn (scheduled job)
type CleanupTokensHandler struct {
	userRepo user.Repository
}

func NewCleanupTokensHandler(userRepo user.Repository) *CleanupTokensHandler {
	return &CleanupTokensHandler{userRepo: userRepo}
}

func (h *CleanupTokensHandler) ProcessTask(ctx context.Context, _ *asynq.Task) error {
	purged, err := h.userRepo.PurgeExpiredVerificationTokens(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to purge expired verification tokens")
		return fmt.Errorf("purge expired tokens: %w", err)
	}

	if purged > 0 {
		log.Info().Int64("purged", purged).Msg("Purged expired verification tokens")
	}
	return nil
}
