package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/auth-service/internal/domain/entity"
	"github.com/oksasatya/auth-service/internal/domain/repository"
	"github.com/oksasatya/auth-service/pkg/helpers"
	"github.com/oksasatya/auth-service/pkg/mailer"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDeactivated = errors.New("account is deactivated")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrResetTokenExpired  = errors.New("password reset token expired")
)

const resetTokenTTL = time.Hour

// EmailPublisher enqueues outbound email jobs. Satisfied by
// helpers.RabbitPublisher; faked in tests.
type EmailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// ProfileIndexer mirrors a profile into the search index. Implementations are
// best-effort and must never fail the calling workflow. Satisfied by
// UserService.
type ProfileIndexer interface {
	IndexUser(ctx context.Context, u *entity.User)
}

// AuthService orchestrates the identity workflows: signup, login, refresh,
// logout, email verification, and password reset. Token validity for refresh
// is decided by comparing against the token stored on the user row, not by
// the token signature alone.
type AuthService struct {
	Repo    repository.UserRepository
	JWT     *helpers.JWTManager
	Pub     EmailPublisher
	Indexer ProfileIndexer
	Logger  *logrus.Logger

	BcryptCost       int
	MailEnabled      bool
	VerifyEmailURL   string
	ResetPasswordURL string

	now func() time.Time
}

func NewAuthService(repo repository.UserRepository, jwt *helpers.JWTManager, pub EmailPublisher, logger *logrus.Logger, bcryptCost int, mailEnabled bool, verifyEmailURL, resetPasswordURL string) *AuthService {
	return &AuthService{
		Repo:             repo,
		JWT:              jwt,
		Pub:              pub,
		Logger:           logger,
		BcryptCost:       bcryptCost,
		MailEnabled:      mailEnabled,
		VerifyEmailURL:   verifyEmailURL,
		ResetPasswordURL: resetPasswordURL,
		now:              time.Now,
	}
}

type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      entity.Role
}

type SignupResult struct {
	User      *entity.User
	Tokens    helpers.TokenPair
	EmailSent bool
}

// Signup registers a local account, fires a best-effort verification email,
// and issues the first token pair. Email delivery failure never aborts the
// signup; it is reported via EmailSent.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	email := entity.NormalizeEmail(in.Email)

	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := helpers.HashPassword(in.Password, s.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	verifyToken, err := helpers.GenerateOpaqueToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}

	u := &entity.User{
		Email:                  email,
		PasswordHash:           hash,
		Provider:               entity.ProviderLocal,
		FirstName:              in.FirstName,
		LastName:               in.LastName,
		Role:                   in.Role,
		IsActive:               true,
		IsEmailVerified:        false,
		EmailVerificationToken: &verifyToken,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	emailSent := s.enqueueEmail(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplateVerifyEmail,
		Data: map[string]any{
			"Name": u.FirstName,
			"Link": s.VerifyEmailURL + "?token=" + verifyToken,
		},
	})

	pair, err := s.issueAndStorePair(ctx, u)
	if err != nil {
		return nil, err
	}
	if s.Indexer != nil {
		s.Indexer.IndexUser(ctx, u)
	}
	return &SignupResult{User: u, Tokens: pair, EmailSent: emailSent}, nil
}

// Login verifies credentials and rotates the stored refresh token. Unknown
// email and wrong password are indistinguishable to the caller; deactivation
// is reported separately so the account owner gets actionable feedback.
func (s *AuthService) Login(ctx context.Context, email, password string) (*entity.User, helpers.TokenPair, error) {
	u, err := s.Repo.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helpers.TokenPair{}, ErrInvalidCredentials
		}
		return nil, helpers.TokenPair{}, fmt.Errorf("lookup email: %w", err)
	}
	if !helpers.CheckPassword(u.PasswordHash, password) {
		return nil, helpers.TokenPair{}, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, helpers.TokenPair{}, ErrAccountDeactivated
	}

	now := s.now()
	u.LastLogin = &now
	pair, err := s.issueAndStorePair(ctx, u)
	if err != nil {
		return nil, helpers.TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The stored token is
// the source of truth: a structurally valid token that no longer matches the
// stored value (logout, rotation, reset) is rejected.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (helpers.TokenPair, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return helpers.TokenPair{}, ErrTokenInvalid
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return helpers.TokenPair{}, ErrTokenInvalid
		}
		return helpers.TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if !u.IsActive || u.RefreshToken == nil || *u.RefreshToken != refreshToken {
		return helpers.TokenPair{}, ErrTokenInvalid
	}
	return s.issueAndStorePair(ctx, u)
}

// Logout clears the stored refresh token. It is idempotent: a missing user or
// an already-cleared token still reports success, since the end state ("no
// valid refresh token") holds either way.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("lookup user: %w", err)
	}
	if u.RefreshToken == nil {
		return nil
	}
	u.RefreshToken = nil
	if err := s.Repo.Update(ctx, u); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	return nil
}

// VerifyEmail marks the account verified and consumes the one-time token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	u, err := s.Repo.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("lookup verification token: %w", err)
	}
	u.IsEmailVerified = true
	u.EmailVerificationToken = nil
	if err := s.Repo.Update(ctx, u); err != nil {
		return fmt.Errorf("mark verified: %w", err)
	}
	return nil
}

// RequestPasswordReset stores a one-hour reset token and fires a best-effort
// email. An unknown email is reported to the caller; this leaks account
// existence and is an accepted tradeoff here.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (bool, error) {
	u, err := s.Repo.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, ErrUserNotFound
		}
		return false, fmt.Errorf("lookup email: %w", err)
	}

	token, err := helpers.GenerateOpaqueToken(32)
	if err != nil {
		return false, fmt.Errorf("generate reset token: %w", err)
	}
	expires := s.now().Add(resetTokenTTL)
	u.PasswordResetToken = &token
	u.PasswordResetExpires = &expires
	if err := s.Repo.Update(ctx, u); err != nil {
		return false, fmt.Errorf("store reset token: %w", err)
	}

	emailSent := s.enqueueEmail(ctx, mailer.EmailJob{
		To:       u.Email,
		Template: mailer.TemplateResetPassword,
		Data: map[string]any{
			"Name":      u.FirstName,
			"Link":      s.ResetPasswordURL + "?token=" + token,
			"ExpiresIn": resetTokenTTL.String(),
		},
	})
	return emailSent, nil
}

// ResetPassword is a full credential rotation: the password is rehashed and
// both the reset token and the stored refresh token are cleared, forcing
// re-login everywhere. Expiry is checked before acceptance.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.Repo.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTokenInvalid
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}
	if u.PasswordResetExpires == nil || s.now().After(*u.PasswordResetExpires) {
		return ErrResetTokenExpired
	}

	hash, err := helpers.HashPassword(newPassword, s.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.PasswordResetToken = nil
	u.PasswordResetExpires = nil
	u.RefreshToken = nil
	if err := s.Repo.Update(ctx, u); err != nil {
		return fmt.Errorf("store new password: %w", err)
	}
	return nil
}

// issueAndStorePair issues a token pair and overwrites the stored refresh
// token, implicitly invalidating the previous one.
func (s *AuthService) issueAndStorePair(ctx context.Context, u *entity.User) (helpers.TokenPair, error) {
	pair, err := s.JWT.GeneratePair(u.ID, u.Email, u.Role)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate token pair failed")
		}
		return helpers.TokenPair{}, fmt.Errorf("generate tokens: %w", err)
	}
	u.RefreshToken = &pair.RefreshToken
	if err := s.Repo.Update(ctx, u); err != nil {
		return helpers.TokenPair{}, fmt.Errorf("store refresh token: %w", err)
	}
	return pair, nil
}

func (s *AuthService) enqueueEmail(ctx context.Context, job mailer.EmailJob) bool {
	if !s.MailEnabled || s.Pub == nil {
		return false
	}
	if err := s.Pub.PublishJSON(ctx, job); err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("to", job.To).Warn("email enqueue failed")
		}
		return false
	}
	return true
}
