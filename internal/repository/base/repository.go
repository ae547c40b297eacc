package base

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"
)

// DB часть *pgxpool.Pool, нужная репозиториям. pgxmock тоже подходит
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository базовый репозиторий с общими методами
type Repository struct {
	db DB
}

// NewRepository создаёт новый базовый репозиторий
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// DB возвращает соединение
func (r *Repository) DB() DB {
	return r.db
}

// QueryRow выполняет запрос и возвращает одну строку
func (r *Repository) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return r.db.QueryRow(ctx, query, args...)
}

// Query выполняет запрос и возвращает множество строк
func (r *Repository) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return r.db.Query(ctx, query, args...)
}

// IsNotFound проверяет является ли ошибка "строка не найдена"
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsConflict проверяет нарушение unique или exclusion ограничения
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolation || pgErr.Code == pgExclusionViolation
}
