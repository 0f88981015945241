package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrPlayerNotFound         = errors.New("player not found")
	ErrPlayerDocumentConflict = errors.New("player document conflict")
	ErrPlayerTeamInvalid      = errors.New("player team invalid")
)

type PlayerRepository interface {
	Create(ctx context.Context, player *models.Player) error
	GetByID(ctx context.Context, id int) (*models.Player, error)
	ListByTeamID(ctx context.Context, teamID int) ([]models.Player, error)
	Update(ctx context.Context, player *models.Player) error
	Delete(ctx context.Context, id int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

const playerColumns = `id, team_id, full_name, document_id, birth_date, position, height_cm, weight_kg, allergies, created_at`

func scanPlayer(row interface{ Scan(...any) error }, p *models.Player) error {
	return row.Scan(
		&p.ID,
		&p.TeamID,
		&p.FullName,
		&p.DocumentID,
		&p.BirthDate,
		&p.Position,
		&p.HeightCm,
		&p.WeightKg,
		&p.Allergies,
		&p.CreatedAt,
	)
}

func (r *postgresPlayerRepository) Create(ctx context.Context, player *models.Player) error {
	query := `
		INSERT INTO players (team_id, full_name, document_id, birth_date, position, height_cm, weight_kg, allergies)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		player.TeamID,
		player.FullName,
		player.DocumentID,
		player.BirthDate,
		player.Position,
		player.HeightCm,
		player.WeightKg,
		player.Allergies,
	).Scan(&player.ID, &player.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "players_document_id_key" {
					return ErrPlayerDocumentConflict
				}
			case "23503":
				return ErrPlayerTeamInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresPlayerRepository) GetByID(ctx context.Context, id int) (*models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE id = $1`

	player := &models.Player{}
	err := scanPlayer(r.db.QueryRowContext(ctx, query, id), player)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (r *postgresPlayerRepository) ListByTeamID(ctx context.Context, teamID int) ([]models.Player, error) {
	query := `SELECT ` + playerColumns + ` FROM players WHERE team_id = $1 ORDER BY full_name`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.Player, 0)
	for rows.Next() {
		var p models.Player
		if scanErr := scanPlayer(rows, &p); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

func (r *postgresPlayerRepository) Update(ctx context.Context, player *models.Player) error {
	query := `
		UPDATE players
		SET full_name = $1, document_id = $2, birth_date = $3, position = $4,
		    height_cm = $5, weight_kg = $6, allergies = $7
		WHERE id = $8`

	result, err := r.db.ExecContext(ctx, query,
		player.FullName,
		player.DocumentID,
		player.BirthDate,
		player.Position,
		player.HeightCm,
		player.WeightKg,
		player.Allergies,
		player.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrPlayerDocumentConflict
		}
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}

func (r *postgresPlayerRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
