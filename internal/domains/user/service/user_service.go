package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"golang.org/x/crypto/bcrypt"

	user "newsletter-backend/internal/domains/user"
	"newsletter-backend/internal/shared"
	"newsletter-backend/pkg/jwt"
	"newsletter-backend/pkg/logger"
)

// verificationTokenTTL - verification links hết hạn sau 24h
const verificationTokenTTL = 24 * time.Hour

type userService struct {
	repo        user.Repository
	jwtManager  *jwt.Manager
	asynqClient *asynq.Client
}

// NewUserService tạo service instance với injected dependencies
func NewUserService(repo user.Repository, jwtManager *jwt.Manager, asynqClient *asynq.Client) user.Service {
	return &userService{
		repo:        repo,
		jwtManager:  jwtManager,
		asynqClient: asynqClient,
	}
}

// ========================================
// AUTHENTICATION
// ========================================

func (s *userService) Register(ctx context.Context, req user.RegisterRequest) (*user.UserDTO, error) {
	// DTO validation đã chạy ở handler layer, double-check an toàn hơn
	if err := req.Validate(); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sentAt := now
	expiresAt := now.Add(verificationTokenTTL)
	u := &user.User{
		Email:                      req.Email,
		PasswordHash:               string(hash),
		FullName:                   req.FullName,
		IsVerified:                 false,
		VerificationToken:          &token,
		VerificationSentAt:         &sentAt,
		VerificationTokenExpiresAt: &expiresAt,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	id, err := s.repo.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id

	s.enqueueVerificationEmail(req.Email, token)

	return u.ToDTO(), nil
}

func (s *userService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			// Không leak email tồn tại hay không
			return nil, user.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return nil, user.ErrInvalidCredentials
	}

	if !u.IsVerified {
		return nil, user.ErrUserNotVerified
	}

	resp, err := s.issueTokens(u)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(ctx, u.ID); err != nil {
		// Best-effort: login vẫn thành công
		logger.Warn("failed to update last login", map[string]interface{}{"user_id": u.ID.String()})
	}

	return resp, nil
}

func (s *userService) VerifyEmail(ctx context.Context, token string) error {
	u, err := s.repo.FindByVerificationToken(ctx, token)
	if err != nil {
		return err
	}

	return s.repo.MarkAsVerified(ctx, u.ID)
}

func (s *userService) ResendVerification(ctx context.Context, email string) error {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			// Uniform response: không leak email tồn tại hay không
			return nil
		}
		return err
	}

	if u.IsVerified {
		return nil
	}

	token, err := generateToken()
	if err != nil {
		return err
	}

	if err := s.repo.UpdateVerificationToken(ctx, u.ID, token, time.Now().Add(verificationTokenTTL)); err != nil {
		return err
	}

	s.enqueueVerificationEmail(u.Email, token)
	return nil
}

func (s *userService) RefreshToken(ctx context.Context, refreshToken string) (*user.LoginResponse, error) {
	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, user.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, user.ErrUnauthorized
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, user.ErrUnauthorized
		}
		return nil, err
	}

	return s.issueTokens(u)
}

// ========================================
// PROFILE
// ========================================

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*user.UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.ToDTO(), nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req user.UpdateProfileRequest) (*user.UserDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Bio != nil {
		u.Bio = req.Bio
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u.ToDTO(), nil
}

// ========================================
// HELPERS
// ========================================

func (s *userService) issueTokens(u *user.User) (*user.LoginResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(u.ID.String(), u.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(u.ID.String())
	if err != nil {
		return nil, err
	}

	return &user.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.jwtManager.AccessExpiry()),
		User:         *u.ToDTO(),
	}, nil
}

// enqueueVerificationEmail đẩy task gửi email sang worker.
// Email failure không block registration flow.
func (s *userService) enqueueVerificationEmail(email, token string) {
	payload, err := json.Marshal(shared.VerifyEmailPayload{Email: email, Token: token})
	if err != nil {
		logger.Error("failed to marshal verification email payload", err)
		return
	}

	task := asynq.NewTask(shared.TypeSendVerificationEmail, payload)
	if _, err := s.asynqClient.Enqueue(task, asynq.Queue(shared.QueueHigh), asynq.MaxRetry(3)); err != nil {
		logger.Error("failed to enqueue verification email", err)
	}
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
