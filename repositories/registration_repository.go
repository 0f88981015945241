package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrRegistrationNotFound = errors.New("event registration not found")
	ErrRegistrationConflict = errors.New("team already registered for event")
	ErrRegistrationInvalid  = errors.New("event registration references invalid row")
)

type RegistrationRepository interface {
	Create(ctx context.Context, reg *models.EventRegistration) error
	GetByID(ctx context.Context, id int) (*models.EventRegistration, error)
	ListByEventID(ctx context.Context, eventID int) ([]models.EventRegistration, error)
	CountAcceptedByEventID(ctx context.Context, eventID int) (int, error)
	UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

const registrationColumns = `id, event_id, team_id, coach_id, status, questions, created_at`

func scanRegistration(row interface{ Scan(...any) error }, reg *models.EventRegistration) error {
	return row.Scan(&reg.ID, &reg.EventID, &reg.TeamID, &reg.CoachID, &reg.Status, &reg.Questions, &reg.CreatedAt)
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.EventRegistration) error {
	query := `
		INSERT INTO event_registrations (event_id, team_id, coach_id, status, questions)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		reg.EventID,
		reg.TeamID,
		reg.CoachID,
		reg.Status,
		reg.Questions,
	).Scan(&reg.ID, &reg.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505":
				return ErrRegistrationConflict
			case "23503":
				return ErrRegistrationInvalid
			}
		}
		return err
	}
	return nil
}

func (r *postgresRegistrationRepository) GetByID(ctx context.Context, id int) (*models.EventRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM event_registrations WHERE id = $1`

	reg := &models.EventRegistration{}
	err := scanRegistration(r.db.QueryRowContext(ctx, query, id), reg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) ListByEventID(ctx context.Context, eventID int) ([]models.EventRegistration, error) {
	query := `SELECT ` + registrationColumns + ` FROM event_registrations WHERE event_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := make([]models.EventRegistration, 0)
	for rows.Next() {
		var reg models.EventRegistration
		if scanErr := scanRegistration(rows, &reg); scanErr != nil {
			return nil, scanErr
		}
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *postgresRegistrationRepository) CountAcceptedByEventID(ctx context.Context, eventID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM event_registrations WHERE event_id = $1 AND status = 'accepted'`,
		eventID,
	).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE event_registrations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}
