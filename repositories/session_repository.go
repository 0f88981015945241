package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionTeamInvalid = errors.New("session team invalid")
	ErrSetNotFound        = errors.New("set not found")
	ErrSetNumberConflict  = errors.New("set number conflict")
)

// SessionRepository работает с сессиями и партиями. Методы, участвующие в
// транзакциях сервиса статистики, принимают SQLExecutor.
type SessionRepository interface {
	Create(ctx context.Context, exec SQLExecutor, session *models.Session) error
	GetByID(ctx context.Context, id int) (*models.Session, error)
	ListByClubID(ctx context.Context, clubID int) ([]models.Session, error)

	CreateSet(ctx context.Context, exec SQLExecutor, set *models.Set) error
	GetSetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Set, error)
	ListSetsBySessionID(ctx context.Context, sessionID int) ([]models.Set, error)
	// AddToSetScore меняет счёт партии на deltaTeam/deltaOpponent.
	AddToSetScore(ctx context.Context, exec SQLExecutor, setID, deltaTeam, deltaOpponent int) error
}

type postgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

const sessionColumns = `id, club_id, team_id, creator_id, type, title, opponent, date, location, created_at`

func scanSession(row interface{ Scan(...any) error }, s *models.Session) error {
	return row.Scan(
		&s.ID,
		&s.ClubID,
		&s.TeamID,
		&s.CreatorID,
		&s.Type,
		&s.Title,
		&s.Opponent,
		&s.Date,
		&s.Location,
		&s.CreatedAt,
	)
}

func (r *postgresSessionRepository) Create(ctx context.Context, exec SQLExecutor, session *models.Session) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO sessions (club_id, team_id, creator_id, type, title, opponent, date, location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := exec.QueryRowContext(ctx, query,
		session.ClubID,
		session.TeamID,
		session.CreatorID,
		session.Type,
		session.Title,
		session.Opponent,
		session.Date,
		session.Location,
	).Scan(&session.ID, &session.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrSessionTeamInvalid
		}
		return err
	}
	return nil
}

func (r *postgresSessionRepository) GetByID(ctx context.Context, id int) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`

	session := &models.Session{}
	err := scanSession(r.db.QueryRowContext(ctx, query, id), session)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (r *postgresSessionRepository) ListByClubID(ctx context.Context, clubID int) ([]models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE club_id = $1 ORDER BY date DESC`

	rows, err := r.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		var s models.Session
		if scanErr := scanSession(rows, &s); scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *postgresSessionRepository) CreateSet(ctx context.Context, exec SQLExecutor, set *models.Set) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		INSERT INTO sets (session_id, set_number, team_score, opponent_score)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := exec.QueryRowContext(ctx, query,
		set.SessionID,
		set.SetNumber,
		set.TeamScore,
		set.OpponentScore,
	).Scan(&set.ID)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrSetNumberConflict
		}
		return err
	}
	return nil
}

func (r *postgresSessionRepository) GetSetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Set, error) {
	if exec == nil {
		exec = r.db
	}
	query := `SELECT id, session_id, set_number, team_score, opponent_score FROM sets WHERE id = $1`

	set := &models.Set{}
	err := exec.QueryRowContext(ctx, query, id).Scan(
		&set.ID, &set.SessionID, &set.SetNumber, &set.TeamScore, &set.OpponentScore,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSetNotFound
		}
		return nil, err
	}
	return set, nil
}

func (r *postgresSessionRepository) ListSetsBySessionID(ctx context.Context, sessionID int) ([]models.Set, error) {
	query := `
		SELECT id, session_id, set_number, team_score, opponent_score
		FROM sets
		WHERE session_id = $1
		ORDER BY set_number`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sets := make([]models.Set, 0)
	for rows.Next() {
		var s models.Set
		if scanErr := rows.Scan(&s.ID, &s.SessionID, &s.SetNumber, &s.TeamScore, &s.OpponentScore); scanErr != nil {
			return nil, scanErr
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

func (r *postgresSessionRepository) AddToSetScore(ctx context.Context, exec SQLExecutor, setID, deltaTeam, deltaOpponent int) error {
	if exec == nil {
		exec = r.db
	}
	query := `
		UPDATE sets
		SET team_score = team_score + $1, opponent_score = opponent_score + $2
		WHERE id = $3`

	result, err := exec.ExecContext(ctx, query, deltaTeam, deltaOpponent, setID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrSetNotFound)
}
