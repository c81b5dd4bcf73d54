package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/ignatzorin/grantwriter-backend/internal/usecase/auth"
)

type mockUserRepository struct {
	byEmail     map[string]*entity.User
	byID        map[uuid.UUID]*entity.User
	lastLoginOK bool
	failLogin   bool
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byEmail: make(map[string]*entity.User),
		byID:    make(map[uuid.UUID]*entity.User),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *entity.User) error {
	m.byEmail[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, apperror.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, apperror.ErrUserNotFound
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, user *entity.User) error {
	if m.failLogin {
		return errors.New("db down")
	}
	m.lastLoginOK = true
	return nil
}

type stubTokens struct{}

func (stubTokens) Issue(user *entity.User) (string, time.Time, error) {
	return "token-" + user.ID.String(), time.Now().Add(time.Hour), nil
}

func TestRegister_CreatesUserAndToken(t *testing.T) {
	repo := newMockUserRepository()
	uc := auth.NewRegisterUseCase(repo, stubTokens{})

	res, err := uc.Execute(context.Background(), auth.RegisterInput{
		Email:    " PI@Lab.org ",
		Password: "Research2025",
	})
	require.NoError(t, err)

	assert.Equal(t, "pi@lab.org", res.User.Email)
	assert.Equal(t, "pi", res.User.DisplayName)
	assert.NotEqual(t, "Research2025", res.User.PasswordHash)
	assert.Equal(t, "token-"+res.User.ID.String(), res.Token)
	assert.Contains(t, repo.byEmail, "pi@lab.org")
}

func TestRegister_RejectsDuplicateAndWeakInput(t *testing.T) {
	repo := newMockUserRepository()
	uc := auth.NewRegisterUseCase(repo, stubTokens{})
	ctx := context.Background()

	_, err := uc.Execute(ctx, auth.RegisterInput{Email: "pi@lab.org", Password: "Research2025"})
	require.NoError(t, err)

	_, err = uc.Execute(ctx, auth.RegisterInput{Email: "pi@lab.org", Password: "Research2025"})
	assert.Equal(t, apperror.ErrCodeConflict, apperror.CodeOf(err))

	_, err = uc.Execute(ctx, auth.RegisterInput{Email: "bad", Password: "Research2025"})
	assert.True(t, apperror.IsValidation(err))

	_, err = uc.Execute(ctx, auth.RegisterInput{Email: "new@lab.org", Password: "weak"})
	assert.True(t, apperror.IsValidation(err))
}

func TestLogin(t *testing.T) {
	repo := newMockUserRepository()
	ctx := context.Background()
	registered, err := auth.NewRegisterUseCase(repo, stubTokens{}).Execute(ctx, auth.RegisterInput{
		Email: "pi@lab.org", Password: "Research2025",
	})
	require.NoError(t, err)

	uc := auth.NewLoginUseCase(repo, stubTokens{})

	res, err := uc.Execute(ctx, auth.LoginInput{Email: "PI@lab.org", Password: "Research2025"})
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, res.User.ID)
	assert.NotNil(t, res.User.LastLoginAt)
	assert.True(t, repo.lastLoginOK)

	_, err = uc.Execute(ctx, auth.LoginInput{Email: "pi@lab.org", Password: "Wrong2025"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = uc.Execute(ctx, auth.LoginInput{Email: "nobody@lab.org", Password: "Research2025"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestLogin_LastLoginFailureDoesNotBlock(t *testing.T) {
	repo := newMockUserRepository()
	ctx := context.Background()
	_, err := auth.NewRegisterUseCase(repo, stubTokens{}).Execute(ctx, auth.RegisterInput{
		Email: "pi@lab.org", Password: "Research2025",
	})
	require.NoError(t, err)
	repo.failLogin = true

	_, err = auth.NewLoginUseCase(repo, stubTokens{}).Execute(ctx, auth.LoginInput{Email: "pi@lab.org", Password: "Research2025"})
	assert.NoError(t, err)
}

func TestCurrentUser(t *testing.T) {
	repo := newMockUserRepository()
	user := entity.NewUser("pi@lab.org", "Dr. Rivera", "hash")
	require.NoError(t, repo.Create(context.Background(), user))

	uc := auth.NewCurrentUserUseCase(repo)

	got, err := uc.Execute(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Rivera", got.DisplayName)

	_, err = uc.Execute(context.Background(), uuid.New())
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
