package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrProfileEmailConflict = errors.New("profile email conflict")
	ErrProfileClubInvalid   = errors.New("profile club invalid")
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id int) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	ListByClubID(ctx context.Context, clubID int) ([]models.Profile, error)
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

const profileColumns = `id, first_name, last_name, email, role, club_id, password_hash, created_at`

func scanProfile(row interface{ Scan(...any) error }, p *models.Profile) error {
	return row.Scan(
		&p.ID,
		&p.FirstName,
		&p.LastName,
		&p.Email,
		&p.Role,
		&p.ClubID,
		&p.PasswordHash,
		&p.CreatedAt,
	)
}

func (r *postgresProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	query := `
		INSERT INTO profiles (first_name, last_name, email, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		profile.FirstName,
		profile.LastName,
		profile.Email,
		profile.Role,
		profile.PasswordHash,
	).Scan(&profile.ID, &profile.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			if pqErr.Constraint == "profiles_email_key" {
				return ErrProfileEmailConflict
			}
		}
		return err
	}
	return nil
}

func (r *postgresProfileRepository) GetByID(ctx context.Context, id int) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile := &models.Profile{}
	err := scanProfile(r.db.QueryRowContext(ctx, query, id), profile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (r *postgresProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`

	profile := &models.Profile{}
	err := scanProfile(r.db.QueryRowContext(ctx, query, email), profile)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return profile, nil
}

func (r *postgresProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	query := `
		UPDATE profiles
		SET first_name = $1, last_name = $2, email = $3, role = $4, club_id = $5, password_hash = $6
		WHERE id = $7`

	result, err := r.db.ExecContext(ctx, query,
		profile.FirstName,
		profile.LastName,
		profile.Email,
		profile.Role,
		profile.ClubID,
		profile.PasswordHash,
		profile.ID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrProfileEmailConflict
			case "23503":
				return ErrProfileClubInvalid
			}
		}
		return err
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) ListByClubID(ctx context.Context, clubID int) ([]models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE club_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]models.Profile, 0)
	for rows.Next() {
		var p models.Profile
		if scanErr := scanProfile(rows, &p); scanErr != nil {
			return nil, scanErr
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
