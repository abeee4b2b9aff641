package post

import (
	"time"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type CreatePostRequest struct {
	PublicationID string `json:"publication_id"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	IsPaid        bool   `json:"is_paid"`
}

func (r CreatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PublicationID, validation.Required, validation.By(validateUUID)),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 300)),
		validation.Field(&r.Body, validation.Required),
	)
}

type UpdatePostRequest struct {
	Title  *string `json:"title"`
	Body   *string `json:"body"`
	IsPaid *bool   `json:"is_paid"`
}

func (r UpdatePostRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 300)),
		validation.Field(&r.Body, validation.NilOrNotEmpty),
	)
}

// UpdatePublishRequest dùng con trỏ để phân biệt "thiếu field" với "false".
// Gin's JSON binding rejects non-boolean values for *bool, which is exactly
// the contract: `"publish": "yes"` must be a 400, not a coerced true.
type UpdatePublishRequest struct {
	Publish *bool `json:"publish"`
}

func (r UpdatePublishRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Publish, validation.NotNil),
	)
}

func validateUUID(value interface{}) error {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_invalid_uuid", "must be a valid UUID")
	}
	return nil
}

type PostDTO struct {
	ID            string     `json:"id"`
	PublicationID string     `json:"publication_id"`
	AuthorID      string     `json:"author_id"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	CoverImageURL *string    `json:"cover_image_url,omitempty"`
	IsPublished   bool       `json:"is_published"`
	IsPaid        bool       `json:"is_paid"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func ToDTO(p *Post) *PostDTO {
	return &PostDTO{
		ID:            p.ID.String(),
		PublicationID: p.PublicationID.String(),
		AuthorID:      p.AuthorID.String(),
		Title:         p.Title,
		Body:          p.Body,
		CoverImageURL: p.CoverImageURL,
		IsPublished:   p.IsPublished,
		IsPaid:        p.IsPaid,
		PublishedAt:   p.PublishedAt,
		CreatedAt:     p.CreatedAt,
	}
}

// TeaserDTO là bản rút gọn trả cho người đọc chưa trả phí với bài is_paid.
type TeaserDTO struct {
	ID            string     `json:"id"`
	PublicationID string     `json:"publication_id"`
	Title         string     `json:"title"`
	Excerpt       string     `json:"excerpt"`
	CoverImageURL *string    `json:"cover_image_url,omitempty"`
	IsPaid        bool       `json:"is_paid"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}

const teaserLength = 280

// Excerpt cắt body xuống maxBytes, lùi về rune boundary để không chặt đôi
// ký tự UTF-8 multibyte.
func Excerpt(body string, maxBytes int) string {
	if len(body) <= maxBytes {
		return body
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "..."
}

func ToTeaserDTO(p *Post) *TeaserDTO {
	excerpt := Excerpt(p.Body, teaserLength)
	return &TeaserDTO{
		ID:            p.ID.String(),
		PublicationID: p.PublicationID.String(),
		Title:         p.Title,
		Excerpt:       excerpt,
		CoverImageURL: p.CoverImageURL,
		IsPaid:        p.IsPaid,
		PublishedAt:   p.PublishedAt,
	}
}
