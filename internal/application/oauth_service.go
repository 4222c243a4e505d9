package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/oksasatya/auth-service/internal/domain/entity"
	"github.com/oksasatya/auth-service/internal/domain/repository"
	"github.com/oksasatya/auth-service/pkg/helpers"
)

var ErrOAuthStateInvalid = errors.New("invalid or expired oauth state")

const (
	oauthStateTTL = 10 * time.Minute
	userInfoURL   = "https://www.googleapis.com/oauth2/v2/userinfo"
)

func oauthStateKey(state string) string { return "oauth:state:" + state }

// MatchOutcome tags how an OAuth profile was resolved to a local identity.
type MatchOutcome int

const (
	// OutcomeMatched: an account with this provider id already exists.
	OutcomeMatched MatchOutcome = iota
	// OutcomeLinked: a local account with the same email was upgraded.
	OutcomeLinked
	// OutcomeCreated: no match, a new account was created.
	OutcomeCreated
)

func (o MatchOutcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeLinked:
		return "linked"
	case OutcomeCreated:
		return "created"
	}
	return "unknown"
}

// GoogleProfile is the subset of the Google userinfo document we consume.
type GoogleProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"given_name"`
	LastName  string `json:"family_name"`
	Picture   string `json:"picture"`
}

// OAuthService drives the Google OAuth code flow. The transient pre-auth
// state (the CSRF state string and the requested role) lives in redis with a
// short TTL; no server-side session survives the handshake.
type OAuthService struct {
	Repo    repository.UserRepository
	JWT     *helpers.JWTManager
	Redis   *redis.Client
	Indexer ProfileIndexer
	Logger  *logrus.Logger

	OAuth *oauth2.Config

	userInfoURL string
	now         func() time.Time
}

func NewOAuthService(repo repository.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, clientID, clientSecret, callbackURL string) *OAuthService {
	return &OAuthService{
		Repo:   repo,
		JWT:    jwt,
		Redis:  rdb,
		Logger: logger,
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: userInfoURL,
		now:         time.Now,
	}
}

// AuthURL stores the requested role under a fresh state string and returns
// the provider redirect URL.
func (s *OAuthService) AuthURL(ctx context.Context, role entity.Role) (string, error) {
	state, err := helpers.GenerateOpaqueToken(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	if err := s.Redis.Set(ctx, oauthStateKey(state), string(role), oauthStateTTL).Err(); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}
	return s.OAuth.AuthCodeURL(state), nil
}

// HandleCallback validates the state, exchanges the code, resolves the
// provider profile to a local identity, and issues a token pair.
func (s *OAuthService) HandleCallback(ctx context.Context, state, code string) (*entity.User, helpers.TokenPair, error) {
	roleStr, err := s.Redis.GetDel(ctx, oauthStateKey(state)).Result()
	if err != nil || roleStr == "" {
		return nil, helpers.TokenPair{}, ErrOAuthStateInvalid
	}
	role := entity.ParseRole(roleStr, entity.RoleFreelancer)

	tok, err := s.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, helpers.TokenPair{}, fmt.Errorf("exchange code: %w", err)
	}
	profile, err := s.fetchProfile(ctx, tok)
	if err != nil {
		return nil, helpers.TokenPair{}, err
	}

	u, outcome, err := s.ResolveProfile(ctx, profile, role)
	if err != nil {
		return nil, helpers.TokenPair{}, err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "outcome": outcome.String()}).Info("oauth callback resolved")
	}

	pair, err := s.JWT.GeneratePair(u.ID, u.Email, u.Role)
	if err != nil {
		return nil, helpers.TokenPair{}, fmt.Errorf("generate tokens: %w", err)
	}
	u.RefreshToken = &pair.RefreshToken
	if err := s.Repo.Update(ctx, u); err != nil {
		return nil, helpers.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return u, pair, nil
}

// ResolveProfile maps a provider profile onto a local identity by a three-way
// match: provider id, then email on a local account (link), then create.
func (s *OAuthService) ResolveProfile(ctx context.Context, p GoogleProfile, role entity.Role) (*entity.User, MatchOutcome, error) {
	now := s.now()
	email := entity.NormalizeEmail(p.Email)

	u, err := s.Repo.GetByProviderID(ctx, p.ID)
	switch {
	case err == nil:
		u.FirstName = p.FirstName
		u.LastName = p.LastName
		if p.Picture != "" {
			u.AvatarURL = p.Picture
		}
		u.LastLogin = &now
		if err := s.Repo.Update(ctx, u); err != nil {
			return nil, OutcomeMatched, fmt.Errorf("update matched user: %w", err)
		}
		s.index(ctx, u)
		return u, OutcomeMatched, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, OutcomeMatched, fmt.Errorf("lookup provider id: %w", err)
	}

	u, err = s.Repo.GetByEmail(ctx, email)
	switch {
	case err == nil && u.Provider == entity.ProviderLocal:
		pid := p.ID
		u.Provider = entity.ProviderGoogle
		u.ProviderID = &pid
		// The provider asserted ownership of this email address.
		u.IsEmailVerified = true
		u.EmailVerificationToken = nil
		if p.Picture != "" {
			u.AvatarURL = p.Picture
		}
		u.LastLogin = &now
		if err := s.Repo.Update(ctx, u); err != nil {
			return nil, OutcomeLinked, fmt.Errorf("link account: %w", err)
		}
		s.index(ctx, u)
		return u, OutcomeLinked, nil
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, OutcomeLinked, fmt.Errorf("lookup email: %w", err)
	}

	pid := p.ID
	u = &entity.User{
		Email:           email,
		Provider:        entity.ProviderGoogle,
		ProviderID:      &pid,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		AvatarURL:       p.Picture,
		Role:            role,
		IsActive:        true,
		IsEmailVerified: true,
		LastLogin:       &now,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, OutcomeCreated, fmt.Errorf("create user: %w", err)
	}
	s.index(ctx, u)
	return u, OutcomeCreated, nil
}

func (s *OAuthService) index(ctx context.Context, u *entity.User) {
	if s.Indexer != nil {
		s.Indexer.IndexUser(ctx, u)
	}
}

func (s *OAuthService) fetchProfile(ctx context.Context, tok *oauth2.Token) (GoogleProfile, error) {
	client := s.OAuth.Client(ctx, tok)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return GoogleProfile{}, err
	}
	res, err := client.Do(req)
	if err != nil {
		return GoogleProfile{}, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		return GoogleProfile{}, fmt.Errorf("userinfo status %d", res.StatusCode)
	}
	var p GoogleProfile
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return GoogleProfile{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if p.ID == "" || p.Email == "" {
		return GoogleProfile{}, errors.New("userinfo missing id or email")
	}
	return p, nil
}
