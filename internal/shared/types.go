package shared

// Task type names cho asynq. Convention: "<domain>:<action>"
const (
	TypeSendVerificationEmail = "email:verification"
	TypePostPublished         = "post:published"
	TypeProcessCoverImage     = "post:process_cover"
	TypeCleanupExpiredTokens  = "auth:cleanup_expired_tokens"
	TypeRetryFailedDeliveries = "notification:retry_failed"
)

// Queue names. Worker weights: high > default > low.
const (
	QueueHigh    = "high"    // reader-facing email (verification)
	QueueDefault = "default" // post fan-out
	QueueLow     = "low"     // cleanup, retries
)

// VerifyEmailPayload là task payload cho verification emails
type VerifyEmailPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// PostPublishedPayload triggers notification fan-out cho một post
type PostPublishedPayload struct {
	PostID string `json:"post_id"`
}

// ProcessCoverImagePayload yêu cầu worker resize cover variants
type ProcessCoverImagePayload struct {
	PostID string `json:"post_id"`
	Key    string `json:"key"` // object key của bản original trong bucket
}
