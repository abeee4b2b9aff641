package main

import (
	"github.com/hibiken/asynq"

	notificationJob "newsletter-backend/internal/domains/notification/job"
	postJob "newsletter-backend/internal/domains/post/job"
	"newsletter-backend/internal/domains/user/job"
	emailjob "newsletter-backend/internal/infrastructure/email/job"
	"newsletter-backend/internal/infrastructure/storage"
	"newsletter-backend/internal/shared"
	"newsletter-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	// Email handlers
	emailVerification *emailjob.EmailVerificationHandler

	// Notification handlers
	postPublished *notificationJob.PostPublishedHandler
	retryFailed   *notificationJob.RetryFailedHandler

	// Media handlers
	processCover *postJob.ProcessCoverHandler

	// Maintenance handlers
	cleanupTokens *job.CleanupTokensHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		emailVerification: emailjob.NewEmailVerificationHandler(c.Email, c.Config.App.BaseURL),

		postPublished: notificationJob.NewPostPublishedHandler(c.NotificationService),
		retryFailed:   notificationJob.NewRetryFailedHandler(c.NotificationService),

		processCover: postJob.NewProcessCoverHandler(c.PostRepo, c.Storage, storage.NewImageProcessor()),

		cleanupTokens: job.NewCleanupTokensHandler(c.UserRepo),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	// Email tasks
	mux.HandleFunc(shared.TypeSendVerificationEmail, h.emailVerification.ProcessTask)

	// Notification fan-out tasks
	mux.HandleFunc(shared.TypePostPublished, h.postPublished.ProcessTask)
	mux.HandleFunc(shared.TypeRetryFailedDeliveries, h.retryFailed.ProcessTask)

	// Media tasks
	mux.HandleFunc(shared.TypeProcessCoverImage, h.processCover.ProcessTask)

	// Maintenance tasks
	mux.HandleFunc(shared.TypeCleanupExpiredTokens, h.cleanupTokens.ProcessTask)
}
