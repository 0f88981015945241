package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var (
	ErrAssistantRequestNotFound = errors.New("assistant request not found")
	ErrAssistantRequestConflict = errors.New("assistant request already exists")
)

type AssistantRequestRepository interface {
	Create(ctx context.Context, req *models.AssistantRequest) error
	GetByID(ctx context.Context, id int) (*models.AssistantRequest, error)
	ListPendingByClubID(ctx context.Context, clubID int) ([]models.AssistantRequest, error)
	UpdateStatus(ctx context.Context, id int, status models.AssistantRequestStatus) error
}

type postgresAssistantRequestRepository struct {
	db *sql.DB
}

func NewPostgresAssistantRequestRepository(db *sql.DB) AssistantRequestRepository {
	return &postgresAssistantRequestRepository{db: db}
}

const assistantRequestColumns = `id, club_id, profile_id, code_id, status, created_at`

func (r *postgresAssistantRequestRepository) Create(ctx context.Context, req *models.AssistantRequest) error {
	query := `
		INSERT INTO assistant_requests (club_id, profile_id, code_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		req.ClubID,
		req.ProfileID,
		req.CodeID,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return ErrAssistantRequestConflict
		}
		return err
	}
	return nil
}

func (r *postgresAssistantRequestRepository) GetByID(ctx context.Context, id int) (*models.AssistantRequest, error) {
	query := `SELECT ` + assistantRequestColumns + ` FROM assistant_requests WHERE id = $1`

	req := &models.AssistantRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID, &req.ClubID, &req.ProfileID, &req.CodeID, &req.Status, &req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssistantRequestNotFound
		}
		return nil, err
	}
	return req, nil
}

func (r *postgresAssistantRequestRepository) ListPendingByClubID(ctx context.Context, clubID int) ([]models.AssistantRequest, error) {
	query := `
		SELECT ` + assistantRequestColumns + `
		FROM assistant_requests
		WHERE club_id = $1 AND status = 'pending'
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := make([]models.AssistantRequest, 0)
	for rows.Next() {
		var req models.AssistantRequest
		if scanErr := rows.Scan(&req.ID, &req.ClubID, &req.ProfileID, &req.CodeID, &req.Status, &req.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *postgresAssistantRequestRepository) UpdateStatus(ctx context.Context, id int, status models.AssistantRequestStatus) error {
	query := `UPDATE assistant_requests SET status = $1 WHERE id = $2 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrAssistantRequestNotFound)
}
