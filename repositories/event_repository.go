package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrEventNotFound         = errors.New("event not found")
	ErrEventOrganizerInvalid = errors.New("event organizer invalid")
)

type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id int) (*models.Event, error)
	// ListVisible возвращает опубликованные события плюс все события организатора.
	ListVisible(ctx context.Context, viewerID int) ([]models.Event, error)
	Update(ctx context.Context, event *models.Event) error
	UpdateStatus(ctx context.Context, id int, status models.EventStatus) error
	UpdateCrestKey(ctx context.Context, id int, key *string) error
	// CloseExpiredRegistrations переводит опубликованные события с прошедшим
	// дедлайном в closed. Возвращает число затронутых событий.
	CloseExpiredRegistrations(ctx context.Context) (int64, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `id, organizer_id, club_id, name, type, date, city, location, description, benefits, max_participants, registration_deadline, status, crest_key, created_at`

func scanEvent(row interface{ Scan(...any) error }, e *models.Event) error {
	return row.Scan(
		&e.ID,
		&e.OrganizerID,
		&e.ClubID,
		&e.Name,
		&e.Type,
		&e.Date,
		&e.City,
		&e.Location,
		&e.Description,
		pq.Array(&e.Benefits),
		&e.MaxParticipants,
		&e.RegDeadline,
		&e.Status,
		&e.CrestKey,
		&e.CreatedAt,
	)
}

func (r *postgresEventRepository) Create(ctx context.Context, event *models.Event) error {
	query := `
		INSERT INTO events (organizer_id, club_id, name, type, date, city, location, description, benefits, max_participants, registration_deadline, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		event.OrganizerID,
		event.ClubID,
		event.Name,
		event.Type,
		event.Date,
		event.City,
		event.Location,
		event.Description,
		pq.Array(event.Benefits),
		event.MaxParticipants,
		event.RegDeadline,
		event.Status,
	).Scan(&event.ID, &event.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrEventOrganizerInvalid
		}
		return err
	}
	return nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	event := &models.Event{}
	err := scanEvent(r.db.QueryRowContext(ctx, query, id), event)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *postgresEventRepository) ListVisible(ctx context.Context, viewerID int) ([]models.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE status IN ('published', 'closed') OR organizer_id = $1
		ORDER BY date`

	rows, err := r.db.QueryContext(ctx, query, viewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if scanErr := scanEvent(rows, &e); scanErr != nil {
			return nil, scanErr
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *postgresEventRepository) Update(ctx context.Context, event *models.Event) error {
	query := `
		UPDATE events
		SET name = $1, type = $2, date = $3, city = $4, location = $5, description = $6,
		    benefits = $7, max_participants = $8, registration_deadline = $9
		WHERE id = $10`

	result, err := r.db.ExecContext(ctx, query,
		event.Name,
		event.Type,
		event.Date,
		event.City,
		event.Location,
		event.Description,
		pq.Array(event.Benefits),
		event.MaxParticipants,
		event.RegDeadline,
		event.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateStatus(ctx context.Context, id int, status models.EventStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) UpdateCrestKey(ctx context.Context, id int, key *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE events SET crest_key = $1 WHERE id = $2`, key, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrEventNotFound)
}

func (r *postgresEventRepository) CloseExpiredRegistrations(ctx context.Context) (int64, error) {
	query := `
		UPDATE events SET status = 'closed'
		WHERE status = 'published' AND registration_deadline IS NOT NULL AND registration_deadline <= NOW()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
