// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agroreach/storefront/internal/domain/user"
)

// UserService is what the auth endpoints need from the user domain
type UserService interface {
	Register(ctx context.Context, req *user.RegisterRequest) (*user.AuthResponse, error)
	Login(ctx context.Context, req *user.LoginRequest) (*user.AuthResponse, error)
	GetProfile(ctx context.Context, userID uint) (*user.User, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	userService UserService
	logger      *logrus.Entry
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService UserService, logger *logrus.Entry) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}

	response, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrEmailTaken):
			respondError(c, http.StatusConflict, err.Error())
		case errors.Is(err, user.ErrWeakPassword):
			respondError(c, http.StatusBadRequest, err.Error())
		default:
			h.logger.WithError(err).Error("registration failed")
			respondError(c, http.StatusInternalServerError, "Failed to register user")
		}
		return
	}

	respondOK(c, http.StatusCreated, "User registered successfully", response)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request data: "+err.Error())
		return
	}

	response, err := h.userService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			respondError(c, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.WithError(err).Error("login failed")
		respondError(c, http.StatusInternalServerError, "Failed to log in")
		return
	}

	respondOK(c, http.StatusOK, "Login successful", response)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		h.logger.WithError(err).Error("profile lookup failed")
		respondError(c, http.StatusInternalServerError, "Failed to retrieve profile")
		return
	}

	respondOK(c, http.StatusOK, "", gin.H{"user": profile})
}
