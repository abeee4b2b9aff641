package publication

import (
	"context"

	"github.com/google/uuid"
)

// Repository định nghĩa contract cho publication data access
type Repository interface {
	// Create tạo publication mới
	// Returns: ErrSlugAlreadyExists nếu slug đã được dùng
	Create(ctx context.Context, p *Publication) (uuid.UUID, error)

	// FindByID tìm theo ID
	// Returns: ErrPublicationNotFound nếu không tìm thấy
	FindByID(ctx context.Context, id uuid.UUID) (*Publication, error)

	// FindBySlug tìm theo slug (public URL path)
	FindBySlug(ctx context.Context, slug string) (*Publication, error)

	// Update cập nhật name/slug/description/price
	// Returns: ErrSlugAlreadyExists nếu rename slug đụng slug khác
	Update(ctx context.Context, p *Publication) error

	// Delete xóa publication cùng posts, subscriptions, deliveries của nó
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByOwner trả về publications của một user
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Publication, error)
}
