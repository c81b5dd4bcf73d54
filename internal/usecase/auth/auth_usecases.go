package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/repository"
	"github.com/ignatzorin/grantwriter-backend/internal/logger"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/ignatzorin/grantwriter-backend/internal/validation"
)

// TokenIssuer выпускает токен доступа для пользователя.
type TokenIssuer interface {
	Issue(user *entity.User) (string, time.Time, error)
}

type Result struct {
	User      *entity.User
	Token     string
	ExpiresAt time.Time
}

type RegisterInput struct {
	Email       string
	Password    string
	DisplayName string
}

type RegisterUseCase struct {
	users  repository.UserRepository
	tokens TokenIssuer
	cost   int
}

func NewRegisterUseCase(users repository.UserRepository, tokens TokenIssuer) *RegisterUseCase {
	return &RegisterUseCase{users: users, tokens: tokens, cost: bcrypt.DefaultCost}
}

func (uc *RegisterUseCase) Execute(ctx context.Context, input RegisterInput) (*Result, error) {
	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(input.Password); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateDisplayName(input.DisplayName); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := uc.users.FindByEmail(ctx, email); err == nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "email is already registered")
	} else if !apperror.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), uc.cost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to hash password")
	}

	user := entity.NewUser(email, input.DisplayName, string(hash))
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.L().WithField("user_id", user.ID.String()).Info("auth: пользователь зарегистрирован")
	return issue(uc.tokens, user)
}

type LoginInput struct {
	Email    string
	Password string
}

type LoginUseCase struct {
	users  repository.UserRepository
	tokens TokenIssuer
}

func NewLoginUseCase(users repository.UserRepository, tokens TokenIssuer) *LoginUseCase {
	return &LoginUseCase{users: users, tokens: tokens}
}

// Execute не различает неизвестный email и неверный пароль.
func (uc *LoginUseCase) Execute(ctx context.Context, input LoginInput) (*Result, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, apperror.ErrInvalidCredentials
	}

	user, err := uc.users.FindByEmail(ctx, email)
	if apperror.IsNotFound(err) {
		return nil, apperror.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperror.ErrInvalidCredentials
	}

	user.MarkLoggedIn()
	if err := uc.users.UpdateLastLogin(ctx, user); err != nil {
		// вход не прерываем
		logger.L().WithFields(logrus.Fields{
			"user_id": user.ID.String(),
			"error":   err.Error(),
		}).Warn("auth: не удалось обновить last_login_at")
	}

	return issue(uc.tokens, user)
}

type CurrentUserUseCase struct {
	users repository.UserRepository
}

func NewCurrentUserUseCase(users repository.UserRepository) *CurrentUserUseCase {
	return &CurrentUserUseCase{users: users}
}

func (uc *CurrentUserUseCase) Execute(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := uc.users.FindByID(ctx, userID)
	if apperror.IsNotFound(err) {
		return nil, apperror.ErrUnauthorized
	}
	return user, err
}

func issue(tokens TokenIssuer, user *entity.User) (*Result, error) {
	token, exp, err := tokens.Issue(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "failed to issue token")
	}
	return &Result{User: user, Token: token, ExpiresAt: exp}, nil
}
