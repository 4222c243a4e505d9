package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/auth-service/internal/container"
	handlers "github.com/oksasatya/auth-service/internal/interface/http"
	"github.com/oksasatya/auth-service/internal/interface/middleware"
	"github.com/oksasatya/auth-service/pkg/helpers"
)

// AuthModule wires the public identity endpoints plus the protected logout.
type AuthModule struct {
	Handler *handlers.AuthHandler
	OAuth   *handlers.OAuthHandler
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, oauth *handlers.OAuthHandler, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, OAuth: oauth, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	// Auth-sensitive endpoints share a 100 req / 15 min per-IP budget.
	authLimiter := middleware.RateLimit(container.GetRedis(), 100, 15*time.Minute, middleware.KeyByIPAndPath())
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP())

	rg.POST("/auth/signup", authLimiter, m.Handler.Signup)
	rg.POST("/auth/login", authLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)
	rg.GET("/auth/verify-email", m.Handler.VerifyEmail)
	rg.POST("/auth/request-password-reset", authLimiter, m.Handler.RequestPasswordReset)
	rg.POST("/auth/reset-password", authLimiter, m.Handler.ResetPassword)

	rg.GET("/auth/google", m.OAuth.Start)
	rg.GET("/auth/google/callback", m.OAuth.Callback)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.JWT))
	{
		auth.POST("/auth/logout", m.Handler.Logout)
	}
}
