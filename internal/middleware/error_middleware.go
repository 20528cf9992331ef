package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/logger"
)

// HandleAPIError handles common API errors and returns appropriate responses.
// A CustomError's message is shown to the caller; otherwise a generic one is used.
func HandleAPIError(c *gin.Context, err error) {
	status, code, message := classify(err)

	var custom *apperrors.CustomError
	if errors.As(err, &custom) && custom.Message != "" {
		message = custom.Message
	}

	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled API error")
	}

	detail := dto.NewErrorDetail(code, message)
	if status == http.StatusBadRequest && custom == nil {
		detail = detail.WithDetails(err.Error())
	}
	c.JSON(status, dto.NewErrorResponse(detail))
}

func classify(err error) (int, dto.ErrorCode, string) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials, "Invalid credentials"
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.ErrorCodeExpiredToken, "Token expired"
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.ErrorCodeInvalidToken, "Invalid token"
	case errors.Is(err, apperrors.ErrStudentNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Student not found"
	case errors.Is(err, apperrors.ErrDosenNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Dosen not found"
	case errors.Is(err, apperrors.ErrBackupNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Backup not found"
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound, "Resource not found"
	case errors.Is(err, apperrors.ErrDosenAlreadyExists):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Dosen already exists"
	case apperrors.Is(err, apperrors.ErrResourceAlreadyExists, apperrors.ErrConflict):
		return http.StatusConflict, dto.ErrorCodeResourceAlreadyExists, "Resource already exists"
	case errors.Is(err, apperrors.ErrInvalidNIM):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed, "NIM must contain digits only"
	case errors.Is(err, apperrors.ErrValidationFailed):
		return http.StatusBadRequest, dto.ErrorCodeValidationFailed, "Validation failed"
	case errors.Is(err, apperrors.ErrBackupInvalid):
		return http.StatusBadRequest, dto.ErrorCodeResourceInvalid, "Invalid backup file format"
	case apperrors.Is(err, apperrors.ErrBadRequest, apperrors.ErrNothingToExport):
		return http.StatusBadRequest, dto.ErrorCodeResourceInvalid, "Bad request"
	default:
		return http.StatusInternalServerError, dto.ErrorCodeInternalServer, "Internal server error"
	}
}
