package dto

import (
	"time"

	"github.com/noah-isme/suggestbox-go-api/internal/models"
)

// AdminLoginRequest is the credentials payload for admin login.
type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required,min=1,max=128"`
}

// TokenResponse carries an issued bearer token and its expiry.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AdminResponse is the serialized representation of an admin account.
type AdminResponse struct {
	ID          uint       `json:"id"`
	Username    string     `json:"username"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// NewAdminResponse converts a model into a DTO.
func NewAdminResponse(admin models.Admin) AdminResponse {
	return AdminResponse{
		ID:          admin.ID,
		Username:    admin.Username,
		CreatedAt:   admin.CreatedAt,
		LastLoginAt: admin.LastLoginAt,
	}
}
