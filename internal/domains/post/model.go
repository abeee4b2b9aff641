package post

import (
	"time"

	"github.com/google/uuid"
)

// Post là một bài viết thuộc publication.
//
// Publish lifecycle: draft -> published -> (unpublished) -> published...
// PublishedAt được stamp đúng một lần ở lần publish đầu tiên và không bao giờ
// bị overwrite bởi các chu kỳ unpublish/republish sau đó.
type Post struct {
	ID            uuid.UUID `db:"id" json:"id"`
	PublicationID uuid.UUID `db:"publication_id" json:"publication_id"`
	AuthorID      uuid.UUID `db:"author_id" json:"author_id"`

	Title         string  `db:"title" json:"title"`
	Body          string  `db:"body" json:"body"`
	CoverImageURL *string `db:"cover_image_url" json:"cover_image_url,omitempty"`

	IsPublished bool       `db:"is_published" json:"is_published"`
	IsPaid      bool       `db:"is_paid" json:"is_paid"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
