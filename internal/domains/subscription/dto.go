package subscription

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
)

type SubscribeRequest struct {
	PublicationID string `json:"publication_id"`
}

func (r SubscribeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PublicationID, validation.Required, validation.By(validateUUID)),
	)
}

// UnsubscribeRequest chấp nhận token từ body lẫn query string.
// Mail clients that honor one-click unsubscribe POST the query form.
type UnsubscribeRequest struct {
	Token string `form:"token" json:"token"`
}

func (r UnsubscribeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

func validateUUID(value interface{}) error {
	s, _ := value.(string)
	if _, err := uuid.Parse(s); err != nil {
		return validation.NewError("validation_invalid_uuid", "must be a valid UUID")
	}
	return nil
}

type SubscriptionDTO struct {
	ID            string    `json:"id"`
	PublicationID string    `json:"publication_id"`
	Tier          string    `json:"tier"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToDTO(s *Subscription) *SubscriptionDTO {
	return &SubscriptionDTO{
		ID:            s.ID.String(),
		PublicationID: s.PublicationID.String(),
		Tier:          s.Tier,
		CreatedAt:     s.CreatedAt,
	}
}
