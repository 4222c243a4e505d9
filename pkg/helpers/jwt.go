package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oksasatya/auth-service/internal/domain/entity"
)

// ErrInvalidToken covers bad signature, malformed structure, and expiry.
var ErrInvalidToken = errors.New("invalid or expired token")

// JWTManager issues and verifies access and refresh tokens. Access and
// refresh tokens are signed with independent secrets so one kind can never
// be replayed as the other.
type JWTManager struct {
	accessSecret  []byte
	refreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// NewJWTManager fails closed: an empty secret refuses to construct a manager
// rather than falling back to a guessable default.
func NewJWTManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) (*JWTManager, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("jwt: access and refresh secrets must be set")
	}
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}
	return &JWTManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
	}, nil
}

// Claims is the minimal payload carried by both token kinds.
type Claims struct {
	UserID string      `json:"uid"`
	Email  string      `json:"email"`
	Role   entity.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair bundles the access and refresh tokens issued together.
type TokenPair struct {
	AccessToken        string    `json:"access_token"`
	AccessTokenExpiry  time.Time `json:"access_expires_at"`
	RefreshToken       string    `json:"refresh_token"`
	RefreshTokenExpiry time.Time `json:"refresh_expires_at"`
}

func (m *JWTManager) GenerateAccessToken(userID, email string, role entity.Role) (string, time.Time, error) {
	return m.sign(userID, email, role, m.accessSecret, m.AccessTTL)
}

func (m *JWTManager) GenerateRefreshToken(userID, email string, role entity.Role) (string, time.Time, error) {
	return m.sign(userID, email, role, m.refreshSecret, m.RefreshTTL)
}

// GeneratePair issues a matched access/refresh token pair.
func (m *JWTManager) GeneratePair(userID, email string, role entity.Role) (TokenPair, error) {
	access, aexp, err := m.GenerateAccessToken(userID, email, role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := m.GenerateRefreshToken(userID, email, role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:        access,
		AccessTokenExpiry:  aexp,
		RefreshToken:       refresh,
		RefreshTokenExpiry: rexp,
	}, nil
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	return parseToken(tokenStr, m.accessSecret)
}

func (m *JWTManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	return parseToken(tokenStr, m.refreshSecret)
}

func (m *JWTManager) sign(userID, email string, role entity.Role, secret []byte, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// jti keeps tokens unique even when two are issued within the
			// same second; rotation relies on the new token differing.
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	return s, exp, err
}

func parseToken(tokenStr string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
