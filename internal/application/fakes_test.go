package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oksasatya/auth-service/internal/domain/entity"
	"github.com/oksasatya/auth-service/internal/domain/repository"
	"github.com/oksasatya/auth-service/pkg/helpers"
	"github.com/oksasatya/auth-service/pkg/mailer"
)

// fakeUserRepo is an in-memory UserRepository. It returns copies so that
// mutations are only visible after Update, like a real store.
type fakeUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return errors.New("unique violation: email")
		}
	}
	r.seq++
	u.ID = fmt.Sprintf("u%d", r.seq)
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	return r.find(func(u *entity.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByProviderID(_ context.Context, pid string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool { return u.ProviderID != nil && *u.ProviderID == pid })
}

func (r *fakeUserRepo) GetByVerificationToken(_ context.Context, tok string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool {
		return u.EmailVerificationToken != nil && *u.EmailVerificationToken == tok
	})
}

func (r *fakeUserRepo) GetByResetToken(_ context.Context, tok string) (*entity.User, error) {
	return r.find(func(u *entity.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == tok
	})
}

func (r *fakeUserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) find(match func(*entity.User) bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// stored fetches the raw record for assertions.
func (r *fakeUserRepo) stored(t *testing.T, id string) *entity.User {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	require.True(t, ok, "user %s not stored", id)
	cp := *u
	return &cp
}

// fakePublisher records enqueued email jobs and can be told to fail.
type fakePublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
	fail bool
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	job, ok := body.(mailer.EmailJob)
	if !ok {
		return errors.New("unexpected payload type")
	}
	p.jobs = append(p.jobs, job)
	return nil
}

func (p *fakePublisher) sent() []mailer.EmailJob {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]mailer.EmailJob(nil), p.jobs...)
}

// fakeIndexer records which user ids were mirrored to the search index.
type fakeIndexer struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeIndexer) IndexUser(_ context.Context, u *entity.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, u.ID)
}

func (f *fakeIndexer) indexed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

func newTestJWT(t *testing.T) *helpers.JWTManager {
	t.Helper()
	m, err := helpers.NewJWTManager("test-access-secret", "test-refresh-secret", 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return m
}

func newTestAuthService(t *testing.T, repo *fakeUserRepo, pub *fakePublisher) *AuthService {
	t.Helper()
	return NewAuthService(
		repo,
		newTestJWT(t),
		pub,
		nil,
		4, // low bcrypt cost to keep tests fast
		true,
		"http://localhost:8080/api/auth/verify-email",
		"http://localhost:3000/reset-password",
	)
}
