package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quetzal/dto"
	"quetzal/middleware"
	"quetzal/usecase"
	"quetzal/utils"
)

type AuthHandler struct {
	auth   *usecase.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *usecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.TrackAuthAttempt("failure", "validation")
		utils.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	switch {
	case err == nil:
	case errors.Is(err, usecase.ErrInvalidCredentials):
		middleware.TrackAuthAttempt("failure", "login")
		utils.Unauthorized(c, "Invalid username or password")
		return
	case errors.Is(err, usecase.ErrPasswordChangeRequired):
		middleware.TrackAuthAttempt("pending", "password")
		c.JSON(http.StatusOK, gin.H{
			"requires_password_change": true,
			"message":                  "Please change your initial password before signing in",
		})
		return
	case errors.Is(err, usecase.ErrTwoFactorRequired):
		middleware.TrackAuthAttempt("pending", "2fa")
		c.JSON(http.StatusOK, gin.H{
			"requires_2fa": true,
			"message":      "Two-factor code required",
		})
		return
	default:
		middleware.TrackError("auth")
		h.logger.Error("login failed", zap.String("username", req.Username), zap.Error(err))
		utils.InternalError(c, "Login failed")
		return
	}

	middleware.TrackAuthAttempt("success", "login")
	h.logger.Info("user signed in",
		zap.String("username", resp.User.Username),
		zap.String("role", string(resp.User.Role)),
		zap.String("device", utils.DescribeDevice(c.Request.UserAgent())),
		zap.String("client_ip", c.ClientIP()),
	)
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Please fill in all fields")
		return
	}

	err := h.auth.ChangePassword(c.Request.Context(), req)
	switch {
	case err == nil:
		middleware.TrackAuthAttempt("success", "password")
		h.logger.Info("password changed", zap.String("username", req.Username))
		c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
	case errors.Is(err, utils.ErrPasswordMismatch):
		utils.BadRequest(c, "Passwords do not match")
	case errors.Is(err, utils.ErrPasswordTooShort), errors.Is(err, utils.ErrPasswordIsDefault):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, usecase.ErrInvalidCredentials):
		middleware.TrackAuthAttempt("failure", "password")
		utils.Unauthorized(c, "Current password is incorrect")
	default:
		middleware.TrackError("auth")
		h.logger.Error("password change failed", zap.String("username", req.Username), zap.Error(err))
		utils.InternalError(c, "Failed to update password")
	}
}

func (h *AuthHandler) Logout(c *gin.Context) {
	token, expiresAt, ok := middleware.TokenFromContext(c)
	if !ok {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token, expiresAt); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		utils.InternalError(c, "Failed to logout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := middleware.ClaimsFromContext(c)
	if !ok {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}
	utils.Success(c, dto.UserResponse{
		Username: claims.Username,
		Role:     claims.Role,
		Email:    claims.Email,
	})
}
