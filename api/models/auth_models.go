// api/models/auth_models.go
package models

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/orderkaro/orderkaro-backend/internal/domain"
)

// --- Auth Request/Response Structs ---

// SignupRequest defines the structure for the signup request body
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest defines the structure for the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse defines the structure for the login response body
type LoginResponse struct {
	Message string      `json:"message"`
	User    domain.User `json:"user"`
	Token   string      `json:"token"`
}

// UpdateProfileRequest updates the user's display name.
type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdatePasswordRequest changes the user's password after re-checking the
// current one.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// --- JWT Claims ---

// CustomClaims includes standard claims and our custom userID claim for JWT
type CustomClaims struct {
	UserID  string `json:"userID"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}
