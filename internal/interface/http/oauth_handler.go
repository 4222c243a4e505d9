package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth-service/internal/application"
	"github.com/oksasatya/auth-service/internal/domain/entity"
	"github.com/oksasatya/auth-service/pkg/response"
)

type OAuthHandler struct {
	Svc       *application.OAuthService
	Logger    *logrus.Logger
	ClientURL string
}

func NewOAuthHandler(svc *application.OAuthService, logger *logrus.Logger, clientURL string) *OAuthHandler {
	return &OAuthHandler{Svc: svc, Logger: logger, ClientURL: clientURL}
}

// Start GET /api/auth/google?role=client|freelancer
// Redirects to the provider consent screen. The requested role travels
// through redis keyed by the state string.
func (h *OAuthHandler) Start(c *gin.Context) {
	role := entity.ParseRole(c.Query("role"), entity.RoleFreelancer)
	authURL, err := h.Svc.AuthURL(c.Request.Context(), role)
	if err != nil {
		h.Logger.WithError(err).Error("oauth start failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to start oauth flow", nil)
		return
	}
	c.Redirect(http.StatusFound, authURL)
}

// Callback GET /api/auth/google/callback?state=...&code=...
// Hands tokens to the client via redirect query parameters; failures redirect
// with an error parameter instead of rendering a response here.
func (h *OAuthHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if state == "" || code == "" {
		h.redirectError(c, "missing state or code")
		return
	}

	_, pair, err := h.Svc.HandleCallback(c.Request.Context(), state, code)
	if err != nil {
		h.Logger.WithError(err).Warn("oauth callback failed")
		h.redirectError(c, "authentication failed")
		return
	}

	q := url.Values{}
	q.Set("accessToken", pair.AccessToken)
	q.Set("refreshToken", pair.RefreshToken)
	c.Redirect(http.StatusFound, h.ClientURL+"/auth/callback?"+q.Encode())
}

func (h *OAuthHandler) redirectError(c *gin.Context, msg string) {
	q := url.Values{}
	q.Set("error", msg)
	c.Redirect(http.StatusFound, h.ClientURL+"/auth/callback?"+q.Encode())
}
