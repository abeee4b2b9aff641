package notification

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// Delivery là một lần gửi email thông báo bài mới tới một subscriber.
// Fan-out tạo một row per recipient trước khi gửi; worker retry dựa trên
// status + attempts.
type Delivery struct {
	ID     uuid.UUID `db:"id" json:"id"`
	PostID uuid.UUID `db:"post_id" json:"post_id"`
	UserID uuid.UUID `db:"user_id" json:"user_id"`
	Email  string    `db:"email" json:"email"`

	Status    string     `db:"status" json:"status"`
	Attempts  int        `db:"attempts" json:"attempts"`
	LastError *string    `db:"last_error" json:"last_error,omitempty"`
	SentAt    *time.Time `db:"sent_at" json:"sent_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
