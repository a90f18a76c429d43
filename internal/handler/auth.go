// internal/handler/auth.go
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"networth-tracker/internal/auth"
	"networth-tracker/internal/domain"
	"networth-tracker/internal/middleware"
	"networth-tracker/internal/storage"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	base
	users         storage.UserStorage
	tokens        *auth.TokenService
	defaults      func() domain.CategoryTree
	secureCookies bool
}

func NewAuthHandler(users storage.UserStorage, tokens *auth.TokenService, defaults func() domain.CategoryTree, secureCookies, detailedErrors bool) *AuthHandler {
	return &AuthHandler{
		base:          base{detailedErrors: detailedErrors},
		users:         users,
		tokens:        tokens,
		defaults:      defaults,
		secureCookies: secureCookies,
	}
}

type userSummary struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

// startSession issues a token for u and sets the session cookie.
func (h *AuthHandler) startSession(c *gin.Context, u *domain.User) bool {
	token, err := h.tokens.GenerateToken(u.ID, u.Email)
	if err != nil {
		h.internalError(c, err, "Failed to create session")
		return false
	}
	http.SetCookie(c.Writer, auth.SessionCookie(token, h.tokens.TTL(), h.secureCookies))
	return true
}

// Register POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req CredentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.internalError(c, err, "Failed to register")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.SplitN(email, "@", 2)[0]
	user := &domain.User{Email: email, PasswordHash: hash, Name: &name}

	if err := h.users.CreateUserWithDefaults(c.Request.Context(), user, h.defaults()); err != nil {
		h.storeError(c, err, "User", "Failed to register")
		return
	}

	if !h.startSession(c, user) {
		return
	}
	slog.Info("user registered", "user_id", user.ID)
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": userSummary{ID: user.ID, Email: user.Email}})
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.users.UserByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, domain.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.internalError(c, err, "Internal server error")
		return
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
	if err != nil {
		h.internalError(c, err, "Internal server error")
		return
	}
	if !ok {
		slog.Debug("login rejected", "user_id", user.ID)
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !h.startSession(c, user) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": userSummary{ID: user.ID, Email: user.Email}})
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	http.SetCookie(c.Writer, auth.ClearedCookie(h.secureCookies))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userSummary{ID: id.ID, Email: id.Email}})
}

// ChangePassword POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := h.users.UserByID(ctx, middleware.UserID(c))
	if err != nil {
		h.storeError(c, err, "User", "Failed to change password")
		return
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		h.internalError(c, err, "Failed to change password")
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	}

	if user.PasswordHash, err = auth.HashPassword(req.NewPassword); err != nil {
		h.internalError(c, err, "Failed to change password")
		return
	}
	if err := h.users.UpdateUser(ctx, user); err != nil {
		h.storeError(c, err, "User", "Failed to change password")
		return
	}

	slog.Info("password changed", "user_id", user.ID)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// === DTO ===

type CredentialsRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,bcryptmax"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,bcryptmax"`
}
