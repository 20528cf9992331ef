package dto

import "time"

// LoginRequest carries the admin password
type LoginRequest struct {
	Password string `json:"password" example:"admin123"`
}

// LoginResponse returns the session token
type LoginResponse struct {
	Success   bool      `json:"success" example:"true"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ChangePasswordRequest carries the new admin password
type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword" example:"rahasia"`
}
