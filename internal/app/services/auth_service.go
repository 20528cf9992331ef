package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/yigit/examprogress/internal/app/models"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/auth"
	"github.com/yigit/examprogress/internal/pkg/validation"
)

// Auth messages shown to the administrator
const (
	MsgWrongPassword    = "Password salah"
	MsgPasswordTooShort = "Password harus minimal 4 karakter"
	MsgPasswordChanged  = "Password berhasil diubah. Silakan login ulang."
)

// Define custom error types for auth service
var (
	ErrInvalidCredentials = apperrors.NewCustomError(apperrors.ErrInvalidCredentials, MsgWrongPassword)
	ErrPasswordTooShort   = apperrors.NewCustomError(apperrors.ErrValidationFailed, MsgPasswordTooShort)
)

// CredentialStore keeps the admin password hash.
type CredentialStore interface {
	Settings() models.AppSettings
	AdminPasswordHash() string
	SetAdminPasswordHash(hash string) error
}

// AuthService handles the single administrator's sessions
type AuthService struct {
	credentials     CredentialStore
	defaultPassword string
	jwtService      *auth.JWTService
	bcryptCost      int
	logger          zerolog.Logger
}

// NewAuthService creates a new AuthService. defaultPassword is accepted until a
// password change stores a hash.
func NewAuthService(
	credentials CredentialStore,
	defaultPassword string,
	jwtService *auth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		credentials:     credentials,
		defaultPassword: defaultPassword,
		jwtService:      jwtService,
		bcryptCost:      auth.BcryptCost,
		logger:          logger,
	}
}

// Login checks the password and issues a session token valid for the configured
// session duration.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if req.Password == "" || !s.passwordMatches(req.Password) {
		s.logger.Warn().Msg("Rejected admin login")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtService.GenerateSessionToken(s.credentials.Settings().SessionTTL())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to issue session token")
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.logger.Info().Time("expiresAt", expiresAt).Msg("Admin logged in")
	return &dto.LoginResponse{Success: true, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) passwordMatches(password string) bool {
	if hash := s.credentials.AdminPasswordHash(); hash != "" {
		return auth.CheckPassword(hash, password)
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(s.defaultPassword)) == 1
}

// ChangePassword stores a bcrypt hash of the new password. Existing tokens stay
// valid until they expire.
func (s *AuthService) ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) (*dto.MessageResponse, error) {
	if !validation.ValidPassword(req.NewPassword) {
		return nil, ErrPasswordTooShort
	}

	hash, err := auth.HashPasswordWithCost(req.NewPassword, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.credentials.SetAdminPasswordHash(hash); err != nil {
		s.logger.Error().Err(err).Msg("Failed to store admin password")
		return nil, fmt.Errorf("failed to store password: %w", err)
	}

	s.logger.Info().Msg("Admin password changed")
	return &dto.MessageResponse{Success: true, Message: MsgPasswordChanged}, nil
}

// ValidateSession verifies a bearer token.
func (s *AuthService) ValidateSession(token string) (*auth.Claims, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}
