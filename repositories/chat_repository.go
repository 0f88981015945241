package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/clubvolley/club-system/models"
	"github.com/lib/pq"
)

var ErrChatEventInvalid = errors.New("chat message event invalid")

// ChatRepository хранит сообщения чата события. Порядок — по времени вставки,
// клиенты опрашивают список целиком.
type ChatRepository interface {
	Create(ctx context.Context, msg *models.EventChatMessage) error
	ListByEventID(ctx context.Context, eventID int) ([]models.EventChatMessage, error)
}

type postgresChatRepository struct {
	db *sql.DB
}

func NewPostgresChatRepository(db *sql.DB) ChatRepository {
	return &postgresChatRepository{db: db}
}

func (r *postgresChatRepository) Create(ctx context.Context, msg *models.EventChatMessage) error {
	query := `
		INSERT INTO event_chat_messages (event_id, sender_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, msg.EventID, msg.SenderID, msg.Body).
		Scan(&msg.ID, &msg.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
			return ErrChatEventInvalid
		}
		return err
	}
	return nil
}

func (r *postgresChatRepository) ListByEventID(ctx context.Context, eventID int) ([]models.EventChatMessage, error) {
	query := `
		SELECT id, event_id, sender_id, body, created_at
		FROM event_chat_messages
		WHERE event_id = $1
		ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.EventChatMessage, 0)
	for rows.Next() {
		var m models.EventChatMessage
		if scanErr := rows.Scan(&m.ID, &m.EventID, &m.SenderID, &m.Body, &m.CreatedAt); scanErr != nil {
			return nil, scanErr
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
