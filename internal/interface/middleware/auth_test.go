package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/auth-service/internal/domain/entity"
	"github.com/oksasatya/auth-service/pkg/helpers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT(t *testing.T) *helpers.JWTManager {
	t.Helper()
	m, err := helpers.NewJWTManager("test-access", "test-refresh", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return m
}

// authRouter mounts a probe handler behind Auth (and optional extra
// middleware) that echoes the identity context keys.
func authRouter(jwt *helpers.JWTManager, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(jwt)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserIDKey),
			"email":   c.GetString(CtxUserEmailKey),
			"role":    c.GetString(CtxUserRoleKey),
		})
	})
	r.GET("/probe", handlers...)
	return r
}

func doProbe(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/probe", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRejectsMissingAndMalformedHeader(t *testing.T) {
	r := authRouter(newTestJWT(t))

	for name, header := range map[string]string{
		"no header":      "",
		"no bearer":      "some-token",
		"wrong scheme":   "Basic dXNlcjpwYXNz",
		"bearer garbage": "Bearer not-a-jwt",
	} {
		w := doProbe(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, name)
	}
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	expired, err := helpers.NewJWTManager("test-access", "test-refresh", -time.Minute, time.Hour)
	require.NoError(t, err)
	tok, _, err := expired.GenerateAccessToken("u1", "a@x.com", entity.RoleClient)
	require.NoError(t, err)

	w := doProbe(authRouter(newTestJWT(t)), "Bearer "+tok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsRefreshTokenAsAccessToken(t *testing.T) {
	jwt := newTestJWT(t)
	refresh, _, err := jwt.GenerateRefreshToken("u1", "a@x.com", entity.RoleClient)
	require.NoError(t, err)

	w := doProbe(authRouter(jwt), "Bearer "+refresh)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthAttachesIdentityToContext(t *testing.T) {
	jwt := newTestJWT(t)
	tok, _, err := jwt.GenerateAccessToken("u42", "ada@x.com", entity.RoleFreelancer)
	require.NoError(t, err)

	w := doProbe(authRouter(jwt), "Bearer "+tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u42"`)
	assert.Contains(t, w.Body.String(), `"email":"ada@x.com"`)
	assert.Contains(t, w.Body.String(), `"role":"freelancer"`)
}

func TestRequireRoleForbidsOutsiders(t *testing.T) {
	jwt := newTestJWT(t)
	r := authRouter(jwt, RequireRole(entity.RoleClient))

	tok, _, err := jwt.GenerateAccessToken("u1", "a@x.com", entity.RoleFreelancer)
	require.NoError(t, err)
	w := doProbe(r, "Bearer "+tok)
	assert.Equal(t, http.StatusForbidden, w.Code)

	tok, _, err = jwt.GenerateAccessToken("u2", "b@x.com", entity.RoleClient)
	require.NoError(t, err)
	w = doProbe(r, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRoleWithoutAuthAlwaysRejects(t *testing.T) {
	r := gin.New()
	r.GET("/probe", RequireRole(entity.RoleClient), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}
