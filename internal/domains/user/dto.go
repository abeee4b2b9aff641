package user

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
)

// ========================================
// AUTH DTOs
// ========================================

type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name" binding:"required"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email,
			validation.Required.Error("email is required"),
			is.Email.Error("invalid email format"),
			validation.Length(5, 255),
		),
		validation.Field(&r.Password,
			validation.Required.Error("password is required"),
			validation.Length(8, 128).Error("password must be 8-128 characters"),
			validation.Match(regexp.MustCompile(`[A-Z]`)).Error("password must contain at least one uppercase letter"),
			validation.Match(regexp.MustCompile(`[a-z]`)).Error("password must contain at least one lowercase letter"),
			validation.Match(regexp.MustCompile(`[0-9]`)).Error("password must contain at least one number"),
		),
		validation.Field(&r.FullName,
			validation.Required.Error("full name is required"),
			validation.Length(2, 100),
		),
	)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResponse - JWT tokens
type LoginResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         UserDTO   `json:"user"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required"`
}

func (r ResendVerificationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

// ========================================
// PROFILE DTOs
// ========================================

type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Bio      *string `json:"bio,omitempty"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName,
			validation.When(r.FullName != nil, validation.Length(2, 100)),
		),
		validation.Field(&r.Bio,
			validation.When(r.Bio != nil, validation.Length(0, 500)),
		),
	)
}

// UserDTO là public representation của User (không chứa credentials)
type UserDTO struct {
	ID         uuid.UUID `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Bio        *string   `json:"bio,omitempty"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// ToDTO converts domain entity sang public DTO
func (u *User) ToDTO() *UserDTO {
	return &UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Bio:        u.Bio,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
