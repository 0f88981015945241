package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrClubCodeNotFound    = errors.New("club code not found")
	ErrClubCodeConflict    = errors.New("club code conflict")
	ErrClubCodeClubInvalid = errors.New("club code club invalid")
)

type ClubCodeRepository interface {
	Create(ctx context.Context, code *models.ClubCode) error
	GetByCode(ctx context.Context, code string) (*models.ClubCode, error)
	ListByClubID(ctx context.Context, clubID int) ([]models.ClubCode, error)
	// IncrementUses атомарно увеличивает счётчик использований.
	// Возвращает ErrClubCodeNotFound, если код исчерпан, отозван или истёк.
	IncrementUses(ctx context.Context, id int) error
	Revoke(ctx context.Context, id int) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type postgresClubCodeRepository struct {
	db *sql.DB
}

func NewPostgresClubCodeRepository(db *sql.DB) ClubCodeRepository {
	return &postgresClubCodeRepository{db: db}
}

const clubCodeColumns = `id, club_id, code, max_uses, uses, status, expires_at, created_at`

func scanClubCode(row interface{ Scan(...any) error }, c *models.ClubCode) error {
	return row.Scan(&c.ID, &c.ClubID, &c.Code, &c.MaxUses, &c.Uses, &c.Status, &c.ExpiresAt, &c.CreatedAt)
}

func (r *postgresClubCodeRepository) Create(ctx context.Context, code *models.ClubCode) error {
	query := `
		INSERT INTO club_codes (club_id, code, max_uses, status, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, uses, created_at`

	err := r.db.QueryRowContext(ctx, query,
		code.ClubID,
		code.Code,
		code.MaxUses,
		code.Status,
		code.ExpiresAt,
	).Scan(&code.ID, &code.Uses, &code.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				if pqErr.Constraint == "club_codes_code_key" {
					return ErrClubCodeConflict
				}
			case "23503":
				return ErrClubCodeClubInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresClubCodeRepository) GetByCode(ctx context.Context, code string) (*models.ClubCode, error) {
	query := `SELECT ` + clubCodeColumns + ` FROM club_codes WHERE code = $1`

	cc := &models.ClubCode{}
	err := scanClubCode(r.db.QueryRowContext(ctx, query, code), cc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrClubCodeNotFound
		}
		return nil, err
	}
	return cc, nil
}

func (r *postgresClubCodeRepository) ListByClubID(ctx context.Context, clubID int) ([]models.ClubCode, error) {
	query := `SELECT ` + clubCodeColumns + ` FROM club_codes WHERE club_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make([]models.ClubCode, 0)
	for rows.Next() {
		var c models.ClubCode
		if scanErr := scanClubCode(rows, &c); scanErr != nil {
			return nil, scanErr
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

func (r *postgresClubCodeRepository) IncrementUses(ctx context.Context, id int) error {
	query := `
		UPDATE club_codes
		SET uses = uses + 1
		WHERE id = $1 AND status = 'active' AND uses < max_uses AND expires_at > NOW()`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrClubCodeNotFound)
}

func (r *postgresClubCodeRepository) Revoke(ctx context.Context, id int) error {
	query := `UPDATE club_codes SET status = 'revoked' WHERE id = $1 AND status = 'active'`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrClubCodeNotFound)
}

func (r *postgresClubCodeRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM club_codes WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
