package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/auth-service/pkg/helpers"
	"github.com/oksasatya/auth-service/pkg/response"
)

// Context keys populated by Auth on success.
const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
	CtxUserRoleKey  = "userRole"
)

const bearerPrefix = "Bearer "

// Auth extracts and verifies the bearer access token and attaches the
// caller's identity to the request context. It deliberately does not touch
// the user store: staleness of the role/active flag between issuance and
// expiry is bounded by the short access-token lifetime.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			response.AbortError(c, http.StatusUnauthorized, "access denied: no token provided", nil)
			return
		}
		claims, err := jwt.ParseAccessToken(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserEmailKey, claims.Email)
		c.Set(CtxUserRoleKey, string(claims.Role))
		c.Next()
	}
}
