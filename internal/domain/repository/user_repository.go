package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/auth-service/internal/domain/entity"
)

// ErrNotFound is returned by lookups when no user matches.
var ErrNotFound = errors.New("user not found")

// UserRepository is the persistence boundary for user records. The
// application layer depends only on this interface; the pgx implementation
// lives in internal/infrastructure/postgres.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByProviderID(ctx context.Context, providerID string) (*entity.User, error)
	GetByVerificationToken(ctx context.Context, token string) (*entity.User, error)
	GetByResetToken(ctx context.Context, token string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
}
