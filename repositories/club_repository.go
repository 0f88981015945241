package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrClubNotFound      = errors.New("club not found")
	ErrClubOwnerConflict = errors.New("owner already has a club")
	ErrClubOwnerInvalid  = errors.New("club owner invalid")
)

type ClubRepository interface {
	Create(ctx context.Context, club *models.Club) error
	GetByID(ctx context.Context, id int) (*models.Club, error)
	GetByOwnerID(ctx context.Context, ownerID int) (*models.Club, error)
	Update(ctx context.Context, club *models.Club) error
	UpdateCrestKey(ctx context.Context, id int, key *string) error
}

type postgresClubRepository struct {
	db *sql.DB
}

func NewPostgresClubRepository(db *sql.DB) ClubRepository {
	return &postgresClubRepository{db: db}
}

const clubColumns = `id, owner_id, name, city, founded_at, contact_email, contact_phone, legal_id, crest_key, created_at`

func scanClub(row interface{ Scan(...any) error }, c *models.Club) error {
	return row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.Name,
		&c.City,
		&c.FoundedAt,
		&c.ContactEmail,
		&c.ContactPhone,
		&c.LegalID,
		&c.CrestKey,
		&c.CreatedAt,
	)
}

func (r *postgresClubRepository) Create(ctx context.Context, club *models.Club) error {
	query := `
		INSERT INTO clubs (owner_id, name, city, founded_at, contact_email, contact_phone, legal_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		club.OwnerID,
		club.Name,
		club.City,
		club.FoundedAt,
		club.ContactEmail,
		club.ContactPhone,
		club.LegalID,
	).Scan(&club.ID, &club.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "clubs_owner_id_key" {
					return ErrClubOwnerConflict
				}
			case "23503":
				return ErrClubOwnerInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresClubRepository) GetByID(ctx context.Context, id int) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE id = $1`

	club := &models.Club{}
	err := scanClub(r.db.QueryRowContext(ctx, query, id), club)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return club, nil
}

// GetByOwnerID возвращает ErrClubNotFound, если у владельца ещё нет клуба.
// Сервис превращает это в "нет клуба", а не в ошибку.
func (r *postgresClubRepository) GetByOwnerID(ctx context.Context, ownerID int) (*models.Club, error) {
	query := `SELECT ` + clubColumns + ` FROM clubs WHERE owner_id = $1`

	club := &models.Club{}
	err := scanClub(r.db.QueryRowContext(ctx, query, ownerID), club)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return club, nil
}

func (r *postgresClubRepository) Update(ctx context.Context, club *models.Club) error {
	query := `
		UPDATE clubs
		SET name = $1, city = $2, founded_at = $3, contact_email = $4, contact_phone = $5, legal_id = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		club.Name,
		club.City,
		club.FoundedAt,
		club.ContactEmail,
		club.ContactPhone,
		club.LegalID,
		club.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrClubNotFound)
}

func (r *postgresClubRepository) UpdateCrestKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE clubs SET crest_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrClubNotFound)
}
