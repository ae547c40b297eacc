package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/Freeeeeet/whatsapp_scheduler/internal/repository/migrations"
)

// Migrator обёртка над goose, миграции встроены в бинарник
type Migrator struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMigrator создаёт новый мигратор
func NewMigrator(pool *pgxpool.Pool, logger *zap.Logger) (*Migrator, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return nil, fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetBaseFS(migrations.FS)

	// Goose работает с *sql.DB, поэтому создаём его из пула
	return &Migrator{db: stdlib.OpenDBFromPool(pool), logger: logger}, nil
}

// Run применяет все pending миграции
func (mg *Migrator) Run(ctx context.Context) error {
	mg.logger.Info("Applying database migrations")

	if err := goose.UpContext(ctx, mg.db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, err := mg.Version(ctx)
	if err != nil {
		return err
	}
	mg.logger.Info("Migrations applied", zap.Int64("version", version))
	return nil
}

// Version показывает текущую версию миграций
func (mg *Migrator) Version(ctx context.Context) (int64, error) {
	version, err := goose.GetDBVersionContext(ctx, mg.db)
	if err != nil {
		return 0, fmt.Errorf("get version: %w", err)
	}
	return version, nil
}

// Close закрывает sql.DB, но не пул (он управляется в App)
func (mg *Migrator) Close() error {
	if mg.db != nil {
		return mg.db.Close()
	}
	return nil
}
