package application

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/oksasatya/auth-service/internal/domain/entity"
)

// newCallbackFixture wires an OAuthService against miniredis and stub provider
// endpoints so the whole start/callback handshake runs without the network.
func newCallbackFixture(t *testing.T, repo *fakeUserRepo) (*OAuthService, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	tokenSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"provider-token","token_type":"Bearer","expires_in":3600}`))
	}))
	t.Cleanup(tokenSrv.Close)

	userinfoSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"google-123","email":"ada@x.com","given_name":"Ada","family_name":"Lovelace","picture":""}`))
	}))
	t.Cleanup(userinfoSrv.Close)

	svc := NewOAuthService(repo, newTestJWT(t), rdb, nil, "client-id", "client-secret", "http://localhost:8080/api/auth/google/callback")
	svc.OAuth.Endpoint = oauth2.Endpoint{TokenURL: tokenSrv.URL, AuthStyle: oauth2.AuthStyleInParams}
	svc.userInfoURL = userinfoSrv.URL
	return svc, mr
}

func stateFromAuthURL(t *testing.T, authURL string) string {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	state := u.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestAuthURLStoresRoleUnderStateWithTTL(t *testing.T) {
	svc, mr := newCallbackFixture(t, newFakeUserRepo())

	authURL, err := svc.AuthURL(context.Background(), entity.RoleClient)
	require.NoError(t, err)
	state := stateFromAuthURL(t, authURL)

	val, err := mr.Get("oauth:state:" + state)
	require.NoError(t, err)
	assert.Equal(t, "client", val)
	assert.Equal(t, oauthStateTTL, mr.TTL("oauth:state:"+state))
}

func TestHandleCallbackConsumesState(t *testing.T) {
	repo := newFakeUserRepo()
	svc, _ := newCallbackFixture(t, repo)
	ctx := context.Background()

	authURL, err := svc.AuthURL(ctx, entity.RoleClient)
	require.NoError(t, err)
	state := stateFromAuthURL(t, authURL)

	u, pair, err := svc.HandleCallback(ctx, state, "auth-code")
	require.NoError(t, err)
	assert.Equal(t, "ada@x.com", u.Email)
	assert.Equal(t, entity.RoleClient, u.Role)
	assert.NotEmpty(t, pair.AccessToken)
	require.NotNil(t, repo.stored(t, u.ID).RefreshToken)
	assert.Equal(t, pair.RefreshToken, *repo.stored(t, u.ID).RefreshToken)

	// The state is single-use: a replayed callback is rejected before any
	// provider round-trip.
	_, _, err = svc.HandleCallback(ctx, state, "auth-code")
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)
}

func TestHandleCallbackRejectsUnknownState(t *testing.T) {
	svc, _ := newCallbackFixture(t, newFakeUserRepo())
	_, _, err := svc.HandleCallback(context.Background(), "forged-state", "auth-code")
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)
}

func TestHandleCallbackRejectsExpiredState(t *testing.T) {
	svc, mr := newCallbackFixture(t, newFakeUserRepo())
	ctx := context.Background()

	authURL, err := svc.AuthURL(ctx, entity.RoleClient)
	require.NoError(t, err)
	state := stateFromAuthURL(t, authURL)

	mr.FastForward(oauthStateTTL + time.Minute)
	_, _, err = svc.HandleCallback(ctx, state, "auth-code")
	assert.ErrorIs(t, err, ErrOAuthStateInvalid)
}
