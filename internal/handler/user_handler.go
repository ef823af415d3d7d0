package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_shop/internal/middleware"
	"github.com/GTDGit/gtd_shop/internal/service"
	"github.com/GTDGit/gtd_shop/internal/utils"
)

// UserHandler handles sign up, login, profile and password reset.
type UserHandler struct {
	userService *service.UserService
	rateLimiter *middleware.InvalidAuthRateLimiter
}

// NewUserHandler constructs a UserHandler. Failed logins are reported to rateLimiter.
func NewUserHandler(userService *service.UserService, rateLimiter *middleware.InvalidAuthRateLimiter) *UserHandler {
	return &UserHandler{userService: userService, rateLimiter: rateLimiter}
}

// CreateAccount handles POST /users/create/
func (h *UserHandler) CreateAccount(c *gin.Context) {
	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	profile, err := h.userService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 201, "Account created", profile)
}

// IssueToken handles POST /users/token/
func (h *UserHandler) IssueToken(c *gin.Context) {
	var req service.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	token, err := h.userService.IssueToken(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCredentials) && h.rateLimiter != nil {
			h.rateLimiter.Fail(c.ClientIP())
		}
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Token issued", token)
}

// GetProfile handles GET /users/profile/
func (h *UserHandler) GetProfile(c *gin.Context) {
	profile, err := h.userService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Profile retrieved", profile)
}

// UpdateProfile handles PATCH /users/profile/
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	profile, err := h.userService.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Profile updated", profile)
}

// ForgotPassword handles POST /users/forgot-password/
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req service.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	found, err := h.userService.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		utils.Success(c, 200, "There is no account with this email", nil)
		return
	}
	utils.Success(c, 200, "A password reset link has been sent to your email", nil)
}

// ResetPassword handles PATCH /users/reset-password/:encoded_id/:token/
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidBody(c, err)
		return
	}
	if err := h.userService.ResetPassword(c.Request.Context(), c.Param("encoded_id"), c.Param("token"), req.Password); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, 200, "Password has been reset", nil)
}
