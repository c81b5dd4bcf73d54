package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/grantwriter-backend/internal/domain/entity"
	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type UserRepositoryAdapter struct {
	db *sqlx.DB
}

func NewUserRepositoryAdapter(db *sqlx.DB) *UserRepositoryAdapter {
	return &UserRepositoryAdapter{db: db}
}

func (r *UserRepositoryAdapter) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, display_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.DisplayName, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return apperror.New(apperror.ErrCodeConflict, "email is already registered")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to create user")
	}
	return nil
}

func (r *UserRepositoryAdapter) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.findOne(ctx, `WHERE email = $1`, email)
}

func (r *UserRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.findOne(ctx, `WHERE id = $1`, id)
}

func (r *UserRepositoryAdapter) UpdateLastLogin(ctx context.Context, user *entity.User) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $2, updated_at = NOW() WHERE id = $1`, user.ID, user.LastLoginAt)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to update user")
	}
	return nil
}

func (r *UserRepositoryAdapter) findOne(ctx context.Context, where string, arg any) (*entity.User, error) {
	query := `SELECT id, email, display_name, password_hash, last_login_at, created_at, updated_at FROM users ` + where
	row, err := getOne[userRow](ctx, r.db, apperror.ErrUserNotFound, "failed to load user", query, arg)
	if err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

type userRow struct {
	ID           uuid.UUID  `db:"id"`
	Email        string     `db:"email"`
	DisplayName  string     `db:"display_name"`
	PasswordHash string     `db:"password_hash"`
	LastLoginAt  *time.Time `db:"last_login_at"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

func (u *userRow) toEntity() *entity.User {
	return &entity.User{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		PasswordHash: u.PasswordHash,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
