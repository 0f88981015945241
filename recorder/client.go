// Package recorder — клиент протокола записи статистики: тонкая обёртка
// над function-endpoints сервера плюс офлайн-очередь действий.
package recorder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultRequestTimeout = 10 * time.Second

// APIError — отказ сервера: endpoint ответил {"success": false, ...}.
// Отличается от транспортной ошибки: действие дошло и было отвергнуто,
// повторять его бессмысленно.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("recorder api error: %s", e.Message)
}

// Action — одно действие матча в формате wire-протокола.
type Action struct {
	TeamID   int    `json:"team_id"`
	PlayerID *int   `json:"player_id,omitempty"`
	Type     string `json:"action_type"`
	Result   string `json:"result"`
	Zone     *int   `json:"zone,omitempty"`
}

// SetState — счёт партии, возвращаемый сервером после каждой мутации.
type SetState struct {
	ID            int `json:"id"`
	SessionID     int `json:"session_id"`
	SetNumber     int `json:"set_number"`
	TeamScore     int `json:"team_score"`
	OpponentScore int `json:"opponent_score"`
}

type SessionState struct {
	ID     int    `json:"id"`
	ClubID int    `json:"club_id"`
	TeamID int    `json:"team_id"`
	Type   string `json:"type"`
	Title  string `json:"title"`
}

type StartSessionRequest struct {
	ClubID   int        `json:"club_id"`
	TeamID   int        `json:"team_id"`
	Type     string     `json:"type"`
	Title    string     `json:"title"`
	Opponent *string    `json:"opponent,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Location string     `json:"location,omitempty"`
}

type RecordActionRequest struct {
	SessionID int `json:"session_id"`
	SetID     int `json:"set_id"`
	Action
}

// Client ходит на function-endpoints сервера от имени одного тренера.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
	}
}

func (c *Client) StartSession(ctx context.Context, req StartSessionRequest) (*SessionState, *SetState, error) {
	var payload struct {
		Session *SessionState `json:"session"`
		Set     *SetState     `json:"set"`
	}
	if err := c.call(ctx, "/functions/start-session", req, &payload); err != nil {
		return nil, nil, err
	}
	return payload.Session, payload.Set, nil
}

func (c *Client) RecordAction(ctx context.Context, req RecordActionRequest) (*SetState, error) {
	var payload struct {
		Set *SetState `json:"set"`
	}
	if err := c.call(ctx, "/functions/record-action", req, &payload); err != nil {
		return nil, err
	}
	return payload.Set, nil
}

func (c *Client) UndoLastAction(ctx context.Context, sessionID int) (*SetState, error) {
	req := struct {
		SessionID int `json:"session_id"`
	}{SessionID: sessionID}

	var payload struct {
		Set *SetState `json:"set"`
	}
	if err := c.call(ctx, "/functions/undo-last-action", req, &payload); err != nil {
		return nil, err
	}
	return payload.Set, nil
}

func (c *Client) SaveActionsBatch(ctx context.Context, sessionID int, actions []Action) (int, error) {
	req := struct {
		SessionID int      `json:"session_id"`
		Actions   []Action `json:"actions"`
	}{SessionID: sessionID, Actions: actions}

	var payload struct {
		Saved int `json:"saved"`
	}
	if err := c.call(ctx, "/functions/save-actions-batch", req, &payload); err != nil {
		return 0, err
	}
	return payload.Saved, nil
}

// call отправляет запрос и разбирает конверт {"success": ...}.
// Транспортные ошибки возвращаются как есть, отказ сервера — как *APIError.
func (c *Client) call(ctx context.Context, path string, reqBody interface{}, payload interface{}) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1_048_576))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}
	if !envelope.Success {
		message := envelope.Error
		if message == "" {
			message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return &APIError{Message: message}
	}

	if payload != nil {
		if err := json.Unmarshal(raw, payload); err != nil {
			return fmt.Errorf("failed to decode payload: %w", err)
		}
	}
	return nil
}
