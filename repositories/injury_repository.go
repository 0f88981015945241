package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrInjuryLogNotFound      = errors.New("injury log not found")
	ErrInjuryLogPlayerInvalid = errors.New("injury log player invalid")
)

// InjuryLogRepository — история травм append-only: только вставка и чтение.
type InjuryLogRepository interface {
	Create(ctx context.Context, log *models.InjuryLog) error
	ListByPlayerID(ctx context.Context, playerID int) ([]models.InjuryLog, error)
}

type postgresInjuryLogRepository struct {
	db *sql.DB
}

func NewPostgresInjuryLogRepository(db *sql.DB) InjuryLogRepository {
	return &postgresInjuryLogRepository{db: db}
}

func (r *postgresInjuryLogRepository) Create(ctx context.Context, log *models.InjuryLog) error {
	query := `
		INSERT INTO injury_logs (player_id, injury_date, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		log.PlayerID,
		log.InjuryDate,
		log.Description,
		log.Status,
	).Scan(&log.ID, &log.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrInjuryLogPlayerInvalid
		}
		return err
	}
	return nil
}

func (r *postgresInjuryLogRepository) ListByPlayerID(ctx context.Context, playerID int) ([]models.InjuryLog, error) {
	query := `
		SELECT id, player_id, injury_date, description, status, created_at
		FROM injury_logs
		WHERE player_id = $1
		ORDER BY injury_date DESC`

	rows, err := r.db.QueryContext(ctx, query, playerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]models.InjuryLog, 0)
	for rows.Next() {
		var l models.InjuryLog
		if scanErr := rows.Scan(&l.ID, &l.PlayerID, &l.InjuryDate, &l.Description, &l.Status, &l.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
