package post

import (
	"context"

	"github.com/google/uuid"
)

// Repository định nghĩa data access cho posts
type Repository interface {
	Create(ctx context.Context, p *Post) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Post, error)
	Update(ctx context.Context, p *Post) error
	Delete(ctx context.Context, id uuid.UUID) error

	// SetPublished flips is_published and stamps published_at on the first
	// publish only. Later publishes and unpublishes leave published_at intact.
	SetPublished(ctx context.Context, id uuid.UUID, published bool) (*Post, error)

	ListByPublication(ctx context.Context, publicationID uuid.UUID, publishedOnly bool, limit, offset int) ([]*Post, int64, error)
	SetCoverImage(ctx context.Context, id uuid.UUID, url string) error
}
