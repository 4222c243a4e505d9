package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/auth-service/internal/container"
	"github.com/oksasatya/auth-service/internal/domain/entity"
	handlers "github.com/oksasatya/auth-service/internal/interface/http"
	"github.com/oksasatya/auth-service/internal/interface/middleware"
	"github.com/oksasatya/auth-service/pkg/helpers"
)

// UserModule wires the protected profile endpoints.
// All routes require a bearer access token; search additionally requires a
// known role (any member of the closed set).
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/users")
	auth.Use(middleware.Auth(m.JWT))
	auth.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByUserID()))
	{
		auth.GET("/me", m.Handler.Me)
		auth.PUT("/profile", m.Handler.UpdateProfile)
		auth.DELETE("/account", m.Handler.DeactivateAccount)
		auth.POST("/avatar", m.Handler.UploadAvatar)
		auth.GET("/search", middleware.RequireRole(entity.Roles()...), m.Handler.Search)
	}
}
