// api/handlers/auth_handler.go
package handlers

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/orderkaro/orderkaro-backend/api/models"
	"github.com/orderkaro/orderkaro-backend/config"
	"github.com/orderkaro/orderkaro-backend/internal/auth" // Import internal auth logic
	"github.com/orderkaro/orderkaro-backend/internal/logger"
	"github.com/orderkaro/orderkaro-backend/internal/storage" // Import storage functions/errors
)

var (
	customLog = logger.NewLogger()
)

// AuthHandler holds dependencies for authentication handlers.
type AuthHandler struct {
	DB  *sql.DB        // Store DB connection pool
	Cfg *config.Config // Application configuration
}

// NewAuthHandler creates a new AuthHandler with dependencies.
func NewAuthHandler(db *sql.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		DB:  db,
		Cfg: cfg,
	}
}

// Signup handles user registration requests.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest // Use DTO from api/models
	newID := uuid.New().String()

	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Signup binding error: %v", err)
		_ = c.Error(err) // Attach the binding error
		return
	}

	// Hash the password using the internal auth function
	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		customLog.Warnf("Failed to hash password during signup for email %s: %v", req.Email, err)
		_ = c.Error(err) // Attach internal error
		return
	}

	// Create user using the storage function
	userId, err := storage.CreateUser(c.Request.Context(), h.DB, newID, req.Name, req.Email, hashedPassword)
	if err != nil {
		customLog.Warnf("Failed to create user %s: %v", req.Email, err)
		_ = c.Error(err) // Attach storage error (e.g., ErrEmailExists)
		return           // Let middleware handle response
	}

	customLog.Printf("Successfully registered user with email %s", req.Email)
	c.JSON(http.StatusCreated, gin.H{"user_id": userId, "message": "User registered successfully"})
}

// Login handles user login requests and issues JWT on success.
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Login binding error: %v", err)
		_ = c.Error(err) // Attach binding error
		return           // Let middleware handle
	}

	user, err := storage.FindUserByEmail(c.Request.Context(), h.DB, req.Email)
	if err != nil || user == nil {
		customLog.Warnf("Login failed for email %s: %v", req.Email, err)
		// Do not reveal whether the email exists.
		_ = c.Error(storage.ErrInvalidCredentials)
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		customLog.Warnf("Login attempt failed for email %s: invalid password", user.Email)
		_ = c.Error(storage.ErrInvalidCredentials)
		return // Let middleware handle
	}

	tokenString, err := auth.GenerateJWT(user.UserId, user.IsAdmin, h.Cfg.JWTSecret, h.Cfg.JWTExpiration)
	if err != nil {
		customLog.Warnf("Failed to generate JWT for user %s: %v", user.UserId, err)
		_ = c.Error(err) // Attach JWT generation error
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{Message: "Logged in successfully", User: *user, Token: tokenString})
}

// Me returns the profile of the authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	userId := c.GetString("userId")

	user, err := storage.FindUserByUserId(c.Request.Context(), h.DB, userId)
	if err != nil {
		customLog.Warnf("Me: user %s lookup failed: %v", userId, err)
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateProfile updates mutable profile fields of the authenticated user.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userId := c.GetString("userId")

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("UpdateProfile binding error: %v", err)
		_ = c.Error(err)
		return
	}

	if err := storage.UpdateUserName(c.Request.Context(), h.DB, userId, req.Name); err != nil {
		customLog.Warnf("UpdateProfile: failed for user %s: %v", userId, err)
		_ = c.Error(err)
		return
	}

	user, err := storage.FindUserByUserId(c.Request.Context(), h.DB, userId)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": user})
}

// UpdatePassword changes the authenticated user's password after verifying
// the current one.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	userId := c.GetString("userId")

	var req models.UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("UpdatePassword binding error: %v", err)
		_ = c.Error(err)
		return
	}

	user, err := storage.FindUserByUserId(c.Request.Context(), h.DB, userId)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if !auth.CheckPasswordHash(req.CurrentPassword, user.PasswordHash) {
		customLog.Warnf("UpdatePassword: wrong current password for user %s", userId)
		_ = c.Error(storage.ErrInvalidCredentials)
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := storage.UpdateUserPassword(c.Request.Context(), h.DB, userId, hashed); err != nil {
		_ = c.Error(err)
		return
	}

	customLog.Printf("Password updated for user %s", userId)
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
