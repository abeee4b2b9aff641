package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsletter-backend/internal/shared/response"
	"newsletter-backend/pkg/jwt"
)

// ContextUserID là gin context key chứa principal id của request
const ContextUserID = "userID"

// AuthMiddleware xác thực JWT access token từ Authorization header.
// Set userID (uuid.UUID) vào context cho downstream handlers.
func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "missing or malformed authorization header")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(token)
		if err != nil {
			response.Unauthorized(c, "invalid token")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.Unauthorized(c, "invalid user ID in token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

// OptionalAuthMiddleware giống AuthMiddleware nhưng không reject anonymous
// requests. Dùng cho công khai endpoints mà behavior thay đổi khi đã login
// (vd: draft posts chỉ visible cho author).
func OptionalAuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if ok {
			if claims, err := jwtManager.ValidateAccessToken(token); err == nil {
				if userID, err := uuid.Parse(claims.UserID); err == nil {
					c.Set(ContextUserID, userID)
				}
			}
		}
		c.Next()
	}
}

// PrincipalID trả về principal id từ context, uuid.Nil nếu anonymous
func PrincipalID(c *gin.Context) uuid.UUID {
	v, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil
	}
	id, ok := v.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}

	return parts[1], true
}
