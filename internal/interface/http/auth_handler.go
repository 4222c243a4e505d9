package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth-service/internal/application"
	"github.com/oksasatya/auth-service/internal/domain/entity"
	"github.com/oksasatya/auth-service/internal/interface/middleware"
	"github.com/oksasatya/auth-service/pkg/response"
	"github.com/oksasatya/auth-service/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type signupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,pwd"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role" binding:"required,role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type resetInitRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,pwd"`
}

// Signup POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.Signup(c.Request.Context(), application.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      entity.Role(req.Role),
	})
	if err != nil {
		if errors.Is(err, application.ErrEmailTaken) {
			response.Error[any](c, http.StatusBadRequest, "user with this email already exists", nil)
			return
		}
		h.Logger.WithError(err).Error("signup failed")
		response.Error[any](c, http.StatusInternalServerError, "an error occurred during signup", nil)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"user":   res.User.PublicProfile(),
		"tokens": res.Tokens,
	}, "user registered successfully, please verify your email", gin.H{"email_sent": res.EmailSent})
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrInvalidCredentials):
			response.Error[any](c, http.StatusUnauthorized, "invalid email or password", nil)
		case errors.Is(err, application.ErrAccountDeactivated):
			response.Error[any](c, http.StatusForbidden, "account is deactivated, please contact support", nil)
		default:
			h.Logger.WithError(err).Error("login failed")
			response.Error[any](c, http.StatusInternalServerError, "an error occurred during login", nil)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":   u.PublicProfile(),
		"tokens": pair,
	}, "login successful", nil)
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		response.Error[any](c, http.StatusBadRequest, "refresh token is required", nil)
		return
	}

	pair, err := h.Svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, application.ErrTokenInvalid) {
			response.Error[any](c, http.StatusUnauthorized, "invalid or expired refresh token", nil)
			return
		}
		h.Logger.WithError(err).Error("refresh failed")
		response.Error[any](c, http.StatusInternalServerError, "an error occurred during token refresh", nil)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tokens": pair}, "token refreshed successfully", nil)
}

// Logout POST /api/auth/logout (bearer)
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.Logout(c.Request.Context(), uid); err != nil {
		h.Logger.WithError(err).WithField("user_id", uid).Error("logout failed")
		response.Error[any](c, http.StatusInternalServerError, "an error occurred during logout", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logout successful", nil)
}

// VerifyEmail GET /api/auth/verify-email?token=...
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error[any](c, http.StatusBadRequest, "verification token is required", nil)
		return
	}
	if err := h.Svc.VerifyEmail(c.Request.Context(), token); err != nil {
		if errors.Is(err, application.ErrTokenInvalid) {
			response.Error[any](c, http.StatusBadRequest, "invalid verification token", nil)
			return
		}
		h.Logger.WithError(err).Error("email verification failed")
		response.Error[any](c, http.StatusInternalServerError, "an error occurred during verification", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"verified": true}, "email verified successfully", nil)
}

// RequestPasswordReset POST /api/auth/request-password-reset
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req resetInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	emailSent, err := h.Svc.RequestPasswordReset(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			response.Error[any](c, http.StatusBadRequest, "no account found with that email", nil)
			return
		}
		h.Logger.WithError(err).Error("password reset request failed")
		response.Error[any](c, http.StatusInternalServerError, "an error occurred during password reset request", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"requested": true}, "password reset email sent", gin.H{"email_sent": emailSent})
}

// ResetPassword POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		if errors.Is(err, application.ErrTokenInvalid) || errors.Is(err, application.ErrResetTokenExpired) {
			response.Error[any](c, http.StatusBadRequest, "invalid or expired password reset token", nil)
			return
		}
		h.Logger.WithError(err).Error("password reset failed")
		response.Error[any](c, http.StatusInternalServerError, "an error occurred during password reset", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"reset": true}, "password reset successful, please log in with your new password", nil)
}
