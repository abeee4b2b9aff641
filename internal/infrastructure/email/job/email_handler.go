package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"newsletter-backend/internal/infrastructure/email"
	"newsletter-backend/internal/shared"
)

// EmailVerificationHandler gửi verification email từ queue
type EmailVerificationHandler struct {
	emailService email.EmailService
	baseURL      string
}

func NewEmailVerificationHandler(emailService email.EmailService, baseURL string) *EmailVerificationHandler {
	return &EmailVerificationHandler{
		emailService: emailService,
		baseURL:      baseURL,
	}
}

func (h *EmailVerificationHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.VerifyEmailPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal EmailVerification payload")
		return asynq.SkipRetry // sai format payload, retry cũng vô ích
	}

	data := email.VerificationEmailData{
		Email:      payload.Email,
		VerifyLink: fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", h.baseURL, payload.Token),
		ExpiresIn:  "24 hours",
	}

	if err := h.emailService.SendVerificationEmail(ctx, data); err != nil {
		log.Error().Err(err).Str("email", payload.Email).Msg("Failed to send verification email")
		return fmt.Errorf("send verification email: %w", err) // SMTP lỗi, retry
	}

	log.Info().
		Str("email", payload.Email).
		Msg("Verification email sent")

	return nil
}
