package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/auth-service/internal/domain/entity"
)

func newTestManager(t *testing.T, accessTTL, refreshTTL time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("access-secret", "refresh-secret", accessTTL, refreshTTL)
	require.NoError(t, err)
	return m
}

func TestNewJWTManagerFailsClosedOnEmptySecrets(t *testing.T) {
	_, err := NewJWTManager("", "refresh", time.Minute, time.Hour)
	assert.Error(t, err)
	_, err = NewJWTManager("access", "", time.Minute, time.Hour)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestManager(t, time.Minute, time.Hour)

	tok, exp, err := m.GenerateAccessToken("u1", "a@x.com", entity.RoleClient)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	claims, err := m.ParseAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, entity.RoleClient, claims.Role)
}

func TestExpiredTokenRejected(t *testing.T) {
	m := newTestManager(t, -time.Minute, time.Hour)

	tok, _, err := m.GenerateAccessToken("u1", "a@x.com", entity.RoleClient)
	require.NoError(t, err)

	_, err = m.ParseAccessToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenKindsUseIndependentSecrets(t *testing.T) {
	m := newTestManager(t, time.Minute, time.Hour)

	access, _, err := m.GenerateAccessToken("u1", "a@x.com", entity.RoleClient)
	require.NoError(t, err)
	refresh, _, err := m.GenerateRefreshToken("u1", "a@x.com", entity.RoleClient)
	require.NoError(t, err)

	_, err = m.ParseAccessToken(refresh)
	assert.ErrorIs(t, err, ErrInvalidToken, "refresh token must not verify as access token")
	_, err = m.ParseRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken, "access token must not verify as refresh token")
}

func TestForeignSignatureRejected(t *testing.T) {
	m := newTestManager(t, time.Minute, time.Hour)
	other, err := NewJWTManager("other-access", "other-refresh", time.Minute, time.Hour)
	require.NoError(t, err)

	tok, _, err := other.GenerateAccessToken("u1", "a@x.com", entity.RoleClient)
	require.NoError(t, err)

	_, err = m.ParseAccessToken(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMalformedTokenRejected(t *testing.T) {
	m := newTestManager(t, time.Minute, time.Hour)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		_, err := m.ParseAccessToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", tok)
	}
}

func TestGeneratePair(t *testing.T) {
	m := newTestManager(t, time.Minute, time.Hour)

	pair, err := m.GeneratePair("u1", "a@x.com", entity.RoleFreelancer)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	ac, err := m.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	rc, err := m.ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, ac.UserID, rc.UserID)
	assert.Equal(t, entity.RoleFreelancer, ac.Role)
}
