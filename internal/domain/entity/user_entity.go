package entity

import (
	"strings"
	"time"
)

// Provider is the authentication origin of an account.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// User is the aggregate root for the account domain.
// PasswordHash holds a bcrypt digest and is empty for OAuth-only accounts.
// RefreshToken is the single outstanding refresh token for the user;
// issuing a new one overwrites (and therefore invalidates) the previous one.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Provider     Provider
	ProviderID   *string

	FirstName string
	LastName  string
	AvatarURL string
	Role      Role

	IsActive        bool
	IsEmailVerified bool

	EmailVerificationToken *string
	PasswordResetToken     *string
	PasswordResetExpires   *time.Time
	RefreshToken           *string

	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail lower-cases and trims an email so uniqueness checks and
// lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// PublicProfile is the subset of a user record safe to return to clients.
type PublicProfile struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Provider        Provider   `json:"provider"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	AvatarURL       string     `json:"avatar_url,omitempty"`
	Role            Role       `json:"role"`
	IsActive        bool       `json:"is_active"`
	IsEmailVerified bool       `json:"is_email_verified"`
	LastLogin       *time.Time `json:"last_login,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// PublicProfile strips the password hash and one-time tokens from the record.
func (u *User) PublicProfile() PublicProfile {
	return PublicProfile{
		ID:              u.ID,
		Email:           u.Email,
		Provider:        u.Provider,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		AvatarURL:       u.AvatarURL,
		Role:            u.Role,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		LastLogin:       u.LastLogin,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}
