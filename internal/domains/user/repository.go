package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository định nghĩa contract cho data access layer
// Interface này cho phép mock trong unit tests và swap implementation
type Repository interface {
	// Create tạo user mới
	// Returns: ErrEmailAlreadyExists nếu email đã tồn tại
	Create(ctx context.Context, u *User) (uuid.UUID, error)

	// FindByID tìm user theo ID
	// Returns: ErrUserNotFound nếu không tìm thấy
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByEmail tìm user theo email (login và unsubscribe resolution)
	// Returns: ErrUserNotFound nếu không tìm thấy
	FindByEmail(ctx context.Context, email string) (*User, error)

	// Update cập nhật profile fields
	Update(ctx context.Context, u *User) error

	// FindByVerificationToken chỉ trả về user nếu token còn hạn
	FindByVerificationToken(ctx context.Context, token string) (*User, error)

	// MarkAsVerified đánh dấu user đã verify email và clear token
	MarkAsVerified(ctx context.Context, userID uuid.UUID) error

	// UpdateVerificationToken set token mới khi resend
	UpdateVerificationToken(ctx context.Context, userID uuid.UUID, token string, expiresAt time.Time) error

	// UpdateLastLogin cập nhật last_login_at
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) error

	// PurgeExpiredVerificationTokens clear tokens đã hết hạn (scheduled job)
	PurgeExpiredVerificationTokens(ctx context.Context) (int64, error)

	// ExistsByEmail kiểm tra email đã tồn tại chưa
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
