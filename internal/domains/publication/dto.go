package publication

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"newsletter-backend/internal/shared/utils"
)

type CreatePublicationRequest struct {
	Name         string           `json:"name" binding:"required"`
	Slug         string           `json:"slug,omitempty"`
	Description  *string          `json:"description,omitempty"`
	MonthlyPrice *decimal.Decimal `json:"monthly_price,omitempty"`
	Currency     string           `json:"currency,omitempty"`
}

func (r CreatePublicationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.Required.Error("name is required"),
			validation.Length(2, 100),
		),
		validation.Field(&r.Slug,
			validation.When(r.Slug != "",
				validation.By(validateSlug),
			),
		),
		validation.Field(&r.Description,
			validation.When(r.Description != nil, validation.Length(0, 1000)),
		),
		validation.Field(&r.Currency,
			validation.When(r.Currency != "", validation.In("usd", "eur", "gbp")),
		),
	)
}

type UpdatePublicationRequest struct {
	Name         *string          `json:"name,omitempty"`
	Slug         *string          `json:"slug,omitempty"`
	Description  *string          `json:"description,omitempty"`
	MonthlyPrice *decimal.Decimal `json:"monthly_price,omitempty"`
}

func (r UpdatePublicationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name,
			validation.When(r.Name != nil, validation.Length(2, 100)),
		),
		validation.Field(&r.Slug,
			validation.When(r.Slug != nil, validation.By(func(v interface{}) error {
				s, _ := v.(*string)
				if s == nil {
					return nil
				}
				return validateSlug(*s)
			})),
		),
		validation.Field(&r.Description,
			validation.When(r.Description != nil, validation.Length(0, 1000)),
		),
	)
}

func validateSlug(value interface{}) error {
	s, _ := value.(string)
	if !utils.IsValidSlug(s) {
		return ErrInvalidSlug
	}
	return nil
}
