package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/clubvolley/club-system/repositories"
)

// TxManager исполняет функцию в одной транзакции. Отдельный интерфейс,
// чтобы сервисы не зависели от *sql.DB напрямую.
type TxManager interface {
	WithTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error
}

type sqlTxManager struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLTxManager(db *sql.DB, logger *slog.Logger) TxManager {
	return &sqlTxManager{db: db, logger: logger}
}

func (m *sqlTxManager) WithTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			m.logger.Error("rollback failed", slog.Any("error", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
