package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/auth-service/internal/domain/entity"
	"github.com/oksasatya/auth-service/pkg/response"
)

// RequireRole authorizes an already-authenticated request against a role set.
// It must be composed after Auth; running it on an unauthenticated request is
// a programming error and always rejects.
func RequireRole(allowed ...entity.Role) gin.HandlerFunc {
	set := make(map[entity.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := entity.Role(c.GetString(CtxUserRoleKey))
		if _, ok := set[role]; !ok {
			response.AbortError(c, http.StatusForbidden, "access denied: insufficient permissions", nil)
			return
		}
		c.Next()
	}
}
