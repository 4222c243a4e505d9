package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/auth-service/internal/domain/entity"
	"github.com/oksasatya/auth-service/internal/domain/repository"
)

const userColumns = `
	id, email, COALESCE(password_hash, ''), provider, provider_id,
	first_name, last_name, avatar_url, role,
	is_active, is_email_verified,
	email_verification_token, password_reset_token, password_reset_expires,
	refresh_token, last_login, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (
			email, password_hash, provider, provider_id,
			first_name, last_name, avatar_url, role,
			is_active, is_email_verified,
			email_verification_token, refresh_token, last_login
		)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at, updated_at
	`, u.Email, u.PasswordHash, u.Provider, u.ProviderID,
		u.FirstName, u.LastName, u.AvatarURL, u.Role,
		u.IsActive, u.IsEmailVerified,
		u.EmailVerificationToken, u.RefreshToken, u.LastLogin)

	return row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE lower(email) = lower($1)`, email)
}

func (r *UserRepository) GetByProviderID(ctx context.Context, providerID string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE provider_id = $1`, providerID)
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE email_verification_token = $1`, token)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*entity.User, error) {
	return r.getOne(ctx, `WHERE password_reset_token = $1`, token)
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now()

	res, err := r.pool.Exec(ctx, `
		UPDATE users SET
			email = $1,
			password_hash = NULLIF($2, ''),
			provider = $3,
			provider_id = $4,
			first_name = $5,
			last_name = $6,
			avatar_url = $7,
			role = $8,
			is_active = $9,
			is_email_verified = $10,
			email_verification_token = $11,
			password_reset_token = $12,
			password_reset_expires = $13,
			refresh_token = $14,
			last_login = $15,
			updated_at = $16
		WHERE id = $17
	`, u.Email, u.PasswordHash, u.Provider, u.ProviderID,
		u.FirstName, u.LastName, u.AvatarURL, u.Role,
		u.IsActive, u.IsEmailVerified,
		u.EmailVerificationToken, u.PasswordResetToken, u.PasswordResetExpires,
		u.RefreshToken, u.LastLogin, u.UpdatedAt, u.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	u := &entity.User{}
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+where, arg)
	if err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Provider, &u.ProviderID,
		&u.FirstName, &u.LastName, &u.AvatarURL, &u.Role,
		&u.IsActive, &u.IsEmailVerified,
		&u.EmailVerificationToken, &u.PasswordResetToken, &u.PasswordResetExpires,
		&u.RefreshToken, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
