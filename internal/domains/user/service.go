package user

import (
	"context"

	"github.com/google/uuid"
)

// Service định nghĩa business logic layer contract
type Service interface {
	// Authentication
	Register(ctx context.Context, req RegisterRequest) (*UserDTO, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	RefreshToken(ctx context.Context, refreshToken string) (*LoginResponse, error)

	// Profile
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)
}
