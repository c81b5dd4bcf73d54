package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/grantwriter-backend/internal/pkg/apperror"
)

// getOne читает одну строку; sql.ErrNoRows превращается в notFound.
func getOne[T any](ctx context.Context, db *sqlx.DB, notFound error, failure string, query string, args ...any) (*T, error) {
	var row T
	if err := db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, failure)
	}
	return &row, nil
}

// selectAll читает строки и переводит каждую в сущность.
func selectAll[T any, E any](ctx context.Context, db *sqlx.DB, toEntity func(*T) *E, failure string, query string, args ...any) ([]*E, error) {
	var rows []T
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, failure)
	}

	result := make([]*E, len(rows))
	for i := range rows {
		result[i] = toEntity(&rows[i])
	}
	return result, nil
}

// requireAffected отличает «ничего не удалено/обновлено» от успеха.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "failed to read affected rows")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
