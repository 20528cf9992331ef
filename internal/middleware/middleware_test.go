package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/examprogress/internal/app/models/dto"
	"github.com/yigit/examprogress/internal/pkg/apperrors"
	"github.com/yigit/examprogress/internal/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type jwtSessions struct {
	jwt *auth.JWTService
}

func (s jwtSessions) ValidateSession(token string) (*auth.Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if errors.Is(err, auth.ErrExpiredToken) {
		return nil, apperrors.ErrTokenExpired
	}
	if err != nil {
		return nil, apperrors.ErrTokenInvalid
	}
	return claims, nil
}

func protectedRouter(jwt *auth.JWTService) *gin.Engine {
	r := gin.New()
	r.GET("/secret", NewAuthMiddleware(jwtSessions{jwt}).JWTAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(ContextRole))
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	jwt := auth.NewJWTService(auth.JWTConfig{SecretKey: "secret", TokenIssuer: "examprogress"})
	token, _, err := jwt.GenerateSessionToken(time.Hour)
	require.NoError(t, err)
	router := protectedRouter(jwt)

	cases := []struct {
		name   string
		header string
		query  string
		status int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"bearer", "Bearer " + token, "", http.StatusOK},
		{"raw", token, "", http.StatusOK},
		{"quoted", `"Bearer ` + token + `"`, "", http.StatusOK},
		{"query", "", "?token=" + token, http.StatusOK},
		{"garbage", "Bearer nope", "", http.StatusUnauthorized},
		{"malformed", "Basic abc", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secret"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "admin", w.Body.String())
			}
		})
	}
}

func TestHandleAPIError(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Password salah"), http.StatusUnauthorized, "Password salah"},
		{fmt.Errorf("lookup: %w", apperrors.ErrStudentNotFound), http.StatusNotFound, "Student not found"},
		{apperrors.ErrDosenAlreadyExists, http.StatusConflict, "Dosen already exists"},
		{fmt.Errorf("%w: NIM must contain digits only", apperrors.ErrInvalidNIM), http.StatusBadRequest, "NIM must contain digits only"},
		{apperrors.NewValidationError("Name is required"), http.StatusBadRequest, "Name is required"},
		{apperrors.NewCustomError(apperrors.ErrNothingToExport, "No students data to export"), http.StatusBadRequest, "No students data to export"},
		{errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		HandleAPIError(c, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		var body dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, tc.message, body.Message)
	}
}
