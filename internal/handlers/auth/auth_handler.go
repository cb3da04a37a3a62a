// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"aquaflow-service/internal/domain/staff"
	"aquaflow-service/internal/middleware"
	"aquaflow-service/internal/pkg/response"
	service "aquaflow-service/internal/service/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService *service.Service
}

func NewAuthHandler(authService *service.Service) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login authenticates a staff account
func (h *AuthHandler) Login(c *gin.Context) {
	var req staff.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", result)
}

// Refresh exchanges a refresh token for a new access token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req staff.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "token refreshed", result)
}

// Logout invalidates the current token and session
func (h *AuthHandler) Logout(c *gin.Context) {
	token := c.GetHeader("Authorization")
	if len(token) > 7 {
		token = token[7:] // strip "Bearer "
	}

	claims, err := h.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		response.Unauthorized(c, "invalid token")
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "logged out", nil)
}

// Me returns the authenticated staff account
func (h *AuthHandler) Me(c *gin.Context) {
	staffID := middleware.MustGetStaffID(c)

	account, err := h.authService.GetAccount(c.Request.Context(), staffID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "account retrieved", account)
}

// CreateAccount registers a new staff account (admin only)
func (h *AuthHandler) CreateAccount(c *gin.Context) {
	var req staff.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, "invalid request body", err)
		return
	}

	account, err := h.authService.CreateAccount(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "staff account created", account)
}
