package user

import (
	"time"

	"github.com/google/uuid"
)

// User là domain entity - ánh xạ 1:1 với bảng users trong DB
type User struct {
	// Identity
	ID    uuid.UUID `db:"id" json:"id"`
	Email string    `db:"email" json:"email"`

	// Authentication
	PasswordHash string `db:"password_hash" json:"-"` // Never expose in JSON

	// Profile
	FullName string  `db:"full_name" json:"full_name"`
	Bio      *string `db:"bio" json:"bio,omitempty"`

	// Email Verification
	IsVerified                 bool       `db:"is_verified" json:"is_verified"`
	VerificationToken          *string    `db:"verification_token" json:"-"`
	VerificationSentAt         *time.Time `db:"verification_sent_at" json:"-"`
	VerificationTokenExpiresAt *time.Time `db:"verification_token_expires_at" json:"-"`

	// Activity
	LastLoginAt *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
