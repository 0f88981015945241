package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrActionNotFound   = errors.New("action not found")
	ErrActionSetInvalid = errors.New("action set invalid")
)

type ActionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, action *models.Action) error
	ListBySessionID(ctx context.Context, sessionID int) ([]models.Action, error)
	// GetLastByCreator возвращает самое свежее действие пользователя в сессии.
	// Порядок определяет сервер по created_at, локального стека отмены нет.
	GetLastByCreator(ctx context.Context, exec SQLExecutor, sessionID, creatorID int) (*models.Action, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
	SummarizeBySessionID(ctx context.Context, sessionID int) ([]models.PlayerActionSummary, error)
}

type postgresActionRepository struct {
	db *sql.DB
}

func NewPostgresActionRepository(db *sql.DB) ActionRepository {
	return &postgresActionRepository{db: db}
}

const actionColumns = `id, session_id, set_id, team_id, player_id, creator_id, action_type, result, zone, created_at`

func scanAction(row interface{ Scan(...any) error }, a *models.Action) error {
	return row.Scan(
		&a.ID,
		&a.SessionID,
		&a.SetID,
		&a.TeamID,
		&a.PlayerID,
		&a.CreatorID,
		&a.Type,
		&a.Result,
		&a.Zone,
		&a.CreatedAt,
	)
}

func (r *postgresActionRepository) Create(ctx context.Context, exec SQLExecutor, action *models.Action) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO actions (session_id, set_id, team_id, player_id, creator_id, action_type, result, zone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		action.SessionID,
		action.SetID,
		action.TeamID,
		action.PlayerID,
		action.CreatorID,
		action.Type,
		action.Result,
		action.Zone,
	).Scan(&action.ID, &action.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrActionSetInvalid
		}
		return err
	}
	return nil
}

func (r *postgresActionRepository) ListBySessionID(ctx context.Context, sessionID int) ([]models.Action, error) {
	query := `SELECT ` + actionColumns + ` FROM actions WHERE session_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := make([]models.Action, 0)
	for rows.Next() {
		var a models.Action
		if scanErr := scanAction(rows, &a); scanErr != nil {
			return nil, scanErr
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func (r *postgresActionRepository) GetLastByCreator(ctx context.Context, exec SQLExecutor, sessionID, creatorID int) (*models.Action, error) {
	if exec == nil {
		exec = r.db
	}
	query := `
		SELECT ` + actionColumns + `
		FROM actions
		WHERE session_id = $1 AND creator_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	action := &models.Action{}
	err := scanAction(exec.QueryRowContext(ctx, query, sessionID, creatorID), action)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrActionNotFound
		}
		return nil, err
	}
	return action, nil
}

func (r *postgresActionRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	if exec == nil {
		exec = r.db
	}
	result, err := exec.ExecContext(ctx, `DELETE FROM actions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrActionNotFound)
}

func (r *postgresActionRepository) SummarizeBySessionID(ctx context.Context, sessionID int) ([]models.PlayerActionSummary, error) {
	query := `
		SELECT player_id, action_type,
		       COUNT(*) FILTER (WHERE result = 'point') AS points,
		       COUNT(*) FILTER (WHERE result = 'error') AS errors,
		       COUNT(*) AS total
		FROM actions
		WHERE session_id = $1
		GROUP BY player_id, action_type
		ORDER BY player_id NULLS LAST, action_type`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]models.PlayerActionSummary, 0)
	for rows.Next() {
		var s models.PlayerActionSummary
		if scanErr := rows.Scan(&s.PlayerID, &s.Type, &s.Points, &s.Errors, &s.Total); scanErr != nil {
			return nil, scanErr
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
