package post

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service định nghĩa business logic cho posts
type Service interface {
	Create(ctx context.Context, principalID uuid.UUID, req *CreatePostRequest) (*Post, error)

	// Get trả về post cho reader. Drafts chỉ author/owner thấy (người khác
	// nhận not-found). fullAccess=false nghĩa là bài is_paid và reader chưa
	// trả phí: handler chỉ được trả teaser.
	Get(ctx context.Context, principalID, id uuid.UUID) (*Post, bool, error)
	Update(ctx context.Context, principalID, id uuid.UUID, req *UpdatePostRequest) (*Post, error)
	Delete(ctx context.Context, principalID, id uuid.UUID) error

	// SetPublished is the publish/unpublish state transition. Only the post's
	// author or the owning publication's owner may call it.
	SetPublished(ctx context.Context, principalID, id uuid.UUID, publish bool) (*Post, error)

	// ListByPublication trả về posts của một publication. includeDrafts chỉ
	// có hiệu lực khi principal là chủ publication.
	ListByPublication(ctx context.Context, principalID, publicationID uuid.UUID, includeDrafts bool, limit, offset int) ([]*Post, int64, error)
	UploadCoverImage(ctx context.Context, principalID, id uuid.UUID, filename string, size int64, reader io.Reader) (*Post, error)
}
