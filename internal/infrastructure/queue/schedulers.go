package queue

import (
	"time"

	"github.com/hibiken/asynq"

	"newsletter-backend/internal/shared"
	"newsletter-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redisAddress, redisPassword string, redisDB int) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisAddress,
			Password: redisPassword,
			DB:       redisDB,
		},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{scheduler: scheduler}
}

func (s *Scheduler) RegisterJobs() error {
	if err := s.registerCleanupExpiredTokensJob(); err != nil {
		return err
	}
	if err := s.registerRetryFailedDeliveriesJob(); err != nil {
		return err
	}
	return nil
}

// ================================================
// JOB 1: Cleanup Expired Verification Tokens (Daily at 2 AM)
// ================================================
func (s *Scheduler) registerCleanupExpiredTokensJob() error {
	task := asynq.NewTask(shared.TypeCleanupExpiredTokens, nil)

	_, err := s.scheduler.Register(
		"0 2 * * *", // daily at 2 AM, low traffic
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register CleanupExpiredTokens job", err)
		return err
	}

	logger.Info("✓ Registered CleanupExpiredTokens: daily at 2 AM", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 2: Retry Failed Deliveries (Every 15 minutes)
// ================================================
// Transient SMTP failures (greylisting, timeouts) usually clear within
// minutes; the per-delivery attempt cap stops permanent addresses from
// cycling forever.
func (s *Scheduler) registerRetryFailedDeliveriesJob() error {
	task := asynq.NewTask(shared.TypeRetryFailedDeliveries, nil)

	_, err := s.scheduler.Register(
		"*/15 * * * *",
		task,
		asynq.Queue(shared.QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register RetryFailedDeliveries job", err)
		return err
	}

	logger.Info("✓ Registered RetryFailedDeliveries: every 15 minutes", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
