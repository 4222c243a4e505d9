package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth-service/internal/application"
	"github.com/oksasatya/auth-service/internal/interface/middleware"
	"github.com/oksasatya/auth-service/pkg/response"
	"github.com/oksasatya/auth-service/pkg/validation"
)

type UserHandler struct {
	Svc    *application.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	AvatarURL *string `json:"avatar_url" binding:"omitempty,url"`
}

// Me GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		h.notFoundOrInternal(c, err, "get profile failed")
		return
	}
	response.Success(c, http.StatusOK, u.PublicProfile(), "profile", nil)
}

// UpdateProfile PUT /api/users/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, application.UpdateProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		h.notFoundOrInternal(c, err, "update profile failed")
		return
	}
	response.Success(c, http.StatusOK, u.PublicProfile(), "profile updated successfully", nil)
}

// DeactivateAccount DELETE /api/users/account
func (h *UserHandler) DeactivateAccount(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.Deactivate(c.Request.Context(), uid); err != nil {
		h.notFoundOrInternal(c, err, "deactivate account failed")
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"deactivated": true}, "account deactivated successfully", nil)
}

// UploadAvatar POST /api/users/avatar (multipart field "avatar")
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	file, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	src, err := file.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cannot read avatar file", nil)
		return
	}
	defer func() { _ = src.Close() }()

	u, err := h.Svc.UploadAvatar(c.Request.Context(), uid, src, file.Filename, file.Header.Get("Content-Type"))
	if err != nil {
		h.notFoundOrInternal(c, err, "avatar upload failed")
		return
	}
	response.Success(c, http.StatusOK, u.PublicProfile(), "avatar uploaded successfully", nil)
}

// Search GET /api/users/search?q=...&size=10
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	size := 10
	if s, err := strconv.Atoi(c.Query("size")); err == nil {
		size = s
	}
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("user search failed")
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

func (h *UserHandler) notFoundOrInternal(c *gin.Context, err error, logMsg string) {
	if errors.Is(err, application.ErrUserNotFound) {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	h.Logger.WithError(err).Error(logMsg)
	response.Error[any](c, http.StatusInternalServerError, "internal server error", nil)
}
