package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/prohmpiriya/devops-api/internal/dto"
	"github.com/prohmpiriya/devops-api/internal/middleware"
	"github.com/prohmpiriya/devops-api/internal/service"
	"github.com/prohmpiriya/devops-api/pkg/response"
)

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Username and password are required")
		return
	}

	meta := dto.LoginMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}

	result, err := h.authService.Login(c.Request.Context(), &req, meta)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingCredentials):
			response.BadRequest(c, "Username and password are required")
		case errors.Is(err, service.ErrInvalidCredentials):
			response.Unauthorized(c, response.CodeInvalidCredentials, "Invalid credentials")
		default:
			response.InternalError(c, err)
		}
		return
	}

	response.Success(c, result)
}

// Profile returns the caller's token content
// GET /api/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	response.Success(c, h.authService.Profile(middleware.GetIdentity(c)))
}

// Admin lists all users
// GET /api/auth/admin
func (h *AuthHandler) Admin(c *gin.Context) {
	result, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}

	response.Success(c, result)
}

// Logout ends the session
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.authService.Logout(c.Request.Context(), middleware.GetToken(c), middleware.GetIdentity(c)); err != nil {
		response.InternalError(c, err)
		return
	}

	response.Success(c, dto.MessageResponse{Message: "Logout successful"})
}
