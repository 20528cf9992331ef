package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/auth"
)

// Context keys set by JWTAuth
const (
	ContextRole      = "role"
	ContextSessionID = "sessionID"
)

// SessionValidator verifies admin session tokens.
type SessionValidator interface {
	ValidateSession(token string) (*auth.Claims, error)
}

// AuthMiddleware guards the administrator routes
type AuthMiddleware struct {
	sessions SessionValidator
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(sessions SessionValidator) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// JWTAuth middleware for JWT token validation
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		// Download links cannot set headers, so a token query parameter is accepted too
		if authHeader == "" {
			authHeader = c.Query("token")
		}

		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		tokenString, ok := extractToken(authHeader)
		if !ok {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			errorDetail = errorDetail.WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		claims, err := m.sessions.ValidateSession(tokenString)
		if err != nil {
			errorCode := dto.ErrorCodeInvalidToken
			errorDetails := "Invalid token"
			if errors.Is(err, apperrors.ErrTokenExpired) {
				errorCode = dto.ErrorCodeExpiredToken
				errorDetails = "Session has expired, please log in again"
			}

			errorDetail := dto.NewErrorDetail(errorCode, "Authentication failed").WithDetails(errorDetails)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		c.Set(ContextRole, claims.Role)
		c.Set(ContextSessionID, claims.ID)
		c.Next()
	}
}

// extractToken accepts "Bearer <jwt>" or a raw JWT, optionally wrapped in quotes.
func extractToken(header string) (string, bool) {
	token, err := auth.ExtractBearerToken(strings.Trim(strings.TrimSpace(header), "\"'"))
	return token, err == nil && token != ""
}
