package handler

import (
	"errors"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"

	user "newsletter-backend/internal/domains/user"
	"newsletter-backend/internal/shared/middleware"
	"newsletter-backend/internal/shared/response"
)

// UserHandler xử lý HTTP requests cho user domain.
// Stateless - chỉ chứa dependencies.
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// ========================================
// AUTHENTICATION ENDPOINTS
// ========================================

// Register xử lý POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	userDTO, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Location", "/api/v1/users/"+userDTO.ID.String())
	response.Success(c, http.StatusCreated, gin.H{
		"message": "User registered successfully. Please check your email to verify.",
		"user":    userDTO,
	})
}

// Login xử lý POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	loginResp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	// Refresh token đi qua HTTP-only cookie, không qua response body
	c.SetCookie("refresh_token", loginResp.RefreshToken, 7*24*3600, "/", "", true, true)
	loginResp.RefreshToken = ""

	response.Success(c, http.StatusOK, loginResp)
}

// RefreshToken xử lý POST /auth/refresh
func (h *UserHandler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie("refresh_token")
	if err != nil {
		response.Unauthorized(c, "Missing refresh token")
		return
	}

	loginResp, err := h.service.RefreshToken(c.Request.Context(), refreshToken)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.SetCookie("refresh_token", loginResp.RefreshToken, 7*24*3600, "/", "", true, true)
	loginResp.RefreshToken = ""

	response.Success(c, http.StatusOK, loginResp)
}

// VerifyEmail xử lý GET /auth/verify-email?token=...
func (h *UserHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "Missing verification token")
		return
	}

	if err := h.service.VerifyEmail(c.Request.Context(), token); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "Email verified successfully"})
}

// ResendVerification xử lý POST /auth/resend-verification
func (h *UserHandler) ResendVerification(c *gin.Context) {
	var req user.ResendVerificationRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	if err := h.service.ResendVerification(c.Request.Context(), req.Email); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"message": "If your email exists and is not verified, a verification link has been sent",
	})
}

// ========================================
// PROFILE ENDPOINTS
// ========================================

// GetProfile xử lý GET /users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID := middleware.PrincipalID(c)

	userDTO, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, userDTO)
}

// UpdateProfile xử lý PATCH /users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID := middleware.PrincipalID(c)

	var req user.UpdateProfileRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	userDTO, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, userDTO)
}

// ========================================
// HELPERS
// ========================================

type validator interface {
	Validate() error
}

// bindAndValidate parse JSON body và chạy ozzo validation.
// Returns false nếu đã write error response.
func (h *UserHandler) bindAndValidate(c *gin.Context, req validator) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return false
	}

	if err := req.Validate(); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed", verrs)
		} else {
			response.BadRequest(c, err.Error())
		}
		return false
	}

	return true
}

// handleError map domain errors thành HTTP status codes
func (h *UserHandler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(c, "User not found")
	case errors.Is(err, user.ErrEmailAlreadyExists):
		response.Conflict(c, "Email already exists")
	case errors.Is(err, user.ErrInvalidToken):
		response.BadRequest(c, "Invalid or expired token")
	case errors.Is(err, user.ErrInvalidCredentials):
		response.Unauthorized(c, "Invalid email or password")
	case errors.Is(err, user.ErrUserNotVerified):
		response.Forbidden(c, "Email address not verified")
	case errors.Is(err, user.ErrUnauthorized):
		response.Unauthorized(c, "Unauthorized")
	default:
		response.InternalServerError(c, "Something went wrong")
	}
}
