package subscription

import (
	"time"

	"github.com/google/uuid"
)

const (
	TierFree = "free"
	TierPaid = "paid"
)

// Subscription nối một reader với một publication.
// (user_id, publication_id) là unique ở DB level; subscribe lặp lại không
// tạo row mới.
type Subscription struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	PublicationID uuid.UUID `db:"publication_id" json:"publication_id"`
	Tier          string    `db:"tier" json:"tier"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Subscriber là row join với users, dùng cho notification fan-out.
type Subscriber struct {
	UserID uuid.UUID `db:"user_id" json:"user_id"`
	Email  string    `db:"email" json:"email"`
	Tier   string    `db:"tier" json:"tier"`
}
