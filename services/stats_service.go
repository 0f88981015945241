package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/clubvolley/club-system/models"
	"github.com/clubvolley/club-system/repositories"
)

// ScoreBroadcaster уведомляет подписчиков табло об изменении счёта партии.
type ScoreBroadcaster interface {
	BroadcastScore(sessionID int, set *models.Set)
}

type StatsService interface {
	// StartSession создаёт сессию и партию №1 атомарно, в одной транзакции.
	StartSession(ctx context.Context, input StartSessionInput) (*models.Session, *models.Set, error)
	GetSession(ctx context.Context, sessionID int) (*models.Session, error)
	ListClubSessions(ctx context.Context, clubID int) ([]models.Session, error)

	// RecordAction вставляет действие и меняет счёт партии в той же транзакции:
	// result=point — ровно один инкремент счёта команды, result=error — счёта
	// соперника, result=continue счёт не трогает.
	RecordAction(ctx context.Context, input RecordActionInput) (*models.Action, *models.Set, error)
	// UndoLastAction удаляет самое свежее действие автора в сессии и
	// откатывает вызванное им изменение счёта.
	UndoLastAction(ctx context.Context, sessionID, currentUserID int) (*models.Set, error)
	// SaveActionsBatch применяет накопленные офлайн действия по порядку,
	// всё или ничего.
	SaveActionsBatch(ctx context.Context, sessionID, currentUserID int, intents []ActionIntent) (int, error)

	ListSessionSets(ctx context.Context, sessionID int) ([]models.Set, error)
	ListSessionActions(ctx context.Context, sessionID int) ([]models.Action, error)
	SummarizeSession(ctx context.Context, sessionID int) ([]models.PlayerActionSummary, error)
}

type StartSessionInput struct {
	ClubID   int                `json:"club_id"`
	TeamID   int                `json:"team_id"`
	Type     models.SessionType `json:"type"`
	Title    string             `json:"title"`
	Opponent *string            `json:"opponent"`
	Date     time.Time          `json:"date"`
	Location string             `json:"location"`

	CreatorID int `json:"-"`
}

type RecordActionInput struct {
	SessionID int                 `json:"session_id"`
	SetID     int                 `json:"set_id"`
	TeamID    int                 `json:"team_id"`
	PlayerID  *int                `json:"player_id"`
	Type      models.ActionType   `json:"action_type"`
	Result    models.ActionResult `json:"result"`
	Zone      *int                `json:"zone"`

	CreatorID int `json:"-"`
}

// ActionIntent — элемент офлайн-очереди клиента: действие без set id,
// партия выбирается сервером на момент применения.
type ActionIntent struct {
	TeamID   int                 `json:"team_id"`
	PlayerID *int                `json:"player_id"`
	Type     models.ActionType   `json:"action_type"`
	Result   models.ActionResult `json:"result"`
	Zone     *int                `json:"zone"`
}

type statsService struct {
	tx          TxManager
	sessionRepo repositories.SessionRepository
	actionRepo  repositories.ActionRepository
	teamRepo    repositories.TeamRepository
	profileRepo repositories.ProfileRepository
	broadcaster ScoreBroadcaster
	logger      *slog.Logger
}

func NewStatsService(
	tx TxManager,
	sessionRepo repositories.SessionRepository,
	actionRepo repositories.ActionRepository,
	teamRepo repositories.TeamRepository,
	profileRepo repositories.ProfileRepository,
	broadcaster ScoreBroadcaster,
	logger *slog.Logger,
) StatsService {
	return &statsService{
		tx:          tx,
		sessionRepo: sessionRepo,
		actionRepo:  actionRepo,
		teamRepo:    teamRepo,
		profileRepo: profileRepo,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// scoreDelta возвращает изменение счёта (команда, соперник) для результата.
func scoreDelta(result models.ActionResult) (int, int) {
	switch result {
	case models.ResultPoint:
		return 1, 0
	case models.ResultError:
		return 0, 1
	default:
		return 0, 0
	}
}

func (s *statsService) StartSession(ctx context.Context, input StartSessionInput) (*models.Session, *models.Set, error) {
	if !input.Type.Valid() {
		return nil, nil, ErrInvalidSessionType
	}
	if input.Title == "" {
		return nil, nil, ErrValidationFailed
	}

	if err := s.authorizeRecorder(ctx, input.ClubID, input.CreatorID); err != nil {
		return nil, nil, err
	}

	team, err := s.teamRepo.GetByID(ctx, input.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, nil, ErrTeamNotFound
		}
		return nil, nil, fmt.Errorf("failed to get team %d: %w", input.TeamID, err)
	}
	if team.ClubID != input.ClubID {
		return nil, nil, ErrForbiddenOperation
	}

	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}

	session := &models.Session{
		ClubID:    input.ClubID,
		TeamID:    input.TeamID,
		CreatorID: input.CreatorID,
		Type:      input.Type,
		Title:     input.Title,
		Opponent:  input.Opponent,
		Date:      date,
		Location:  input.Location,
	}
	firstSet := &models.Set{SetNumber: 1}

	err = s.tx.WithTx(ctx, func(tx repositories.SQLExecutor) error {
		if err := s.sessionRepo.Create(ctx, tx, session); err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		firstSet.SessionID = session.ID
		if err := s.sessionRepo.CreateSet(ctx, tx, firstSet); err != nil {
			return fmt.Errorf("failed to create first set: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return session, firstSet, nil
}

func (s *statsService) GetSession(ctx context.Context, sessionID int) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %d: %w", sessionID, err)
	}

	sets, err := s.sessionRepo.ListSetsBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sets for session %d: %w", sessionID, err)
	}
	session.Sets = sets
	return session, nil
}

func (s *statsService) ListClubSessions(ctx context.Context, clubID int) ([]models.Session, error) {
	sessions, err := s.sessionRepo.ListByClubID(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions for club %d: %w", clubID, err)
	}
	return sessions, nil
}

func (s *statsService) RecordAction(ctx context.Context, input RecordActionInput) (*models.Action, *models.Set, error) {
	if !input.Type.Valid() {
		return nil, nil, ErrInvalidActionType
	}
	if !input.Result.Valid() {
		return nil, nil, ErrInvalidActionResult
	}

	session, err := s.sessionRepo.GetByID(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to get session %d: %w", input.SessionID, err)
	}
	if err := s.authorizeRecorder(ctx, session.ClubID, input.CreatorID); err != nil {
		return nil, nil, err
	}

	action := &models.Action{
		SessionID: input.SessionID,
		SetID:     input.SetID,
		TeamID:    input.TeamID,
		PlayerID:  input.PlayerID,
		CreatorID: input.CreatorID,
		Type:      input.Type,
		Result:    input.Result,
		Zone:      input.Zone,
	}
	var updatedSet *models.Set

	err = s.tx.WithTx(ctx, func(tx repositories.SQLExecutor) error {
		set, err := s.sessionRepo.GetSetByID(ctx, tx, input.SetID)
		if err != nil {
			if errors.Is(err, repositories.ErrSetNotFound) {
				return ErrSetNotFound
			}
			return fmt.Errorf("failed to get set %d: %w", input.SetID, err)
		}
		if set.SessionID != input.SessionID {
			return ErrSetNotFound
		}

		if err := s.actionRepo.Create(ctx, tx, action); err != nil {
			return fmt.Errorf("failed to create action: %w", err)
		}

		deltaTeam, deltaOpponent := scoreDelta(input.Result)
		if deltaTeam != 0 || deltaOpponent != 0 {
			if err := s.sessionRepo.AddToSetScore(ctx, tx, set.ID, deltaTeam, deltaOpponent); err != nil {
				return fmt.Errorf("failed to update score of set %d: %w", set.ID, err)
			}
		}
		set.TeamScore += deltaTeam
		set.OpponentScore += deltaOpponent
		updatedSet = set
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.broadcast(input.SessionID, updatedSet)
	return action, updatedSet, nil
}

func (s *statsService) UndoLastAction(ctx context.Context, sessionID, currentUserID int) (*models.Set, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session %d: %w", sessionID, err)
	}
	if err := s.authorizeRecorder(ctx, session.ClubID, currentUserID); err != nil {
		return nil, err
	}

	var updatedSet *models.Set

	err = s.tx.WithTx(ctx, func(tx repositories.SQLExecutor) error {
		// "Последнее" действие определяет сервер по created_at,
		// клиентского стека отмены нет.
		last, err := s.actionRepo.GetLastByCreator(ctx, tx, sessionID, currentUserID)
		if err != nil {
			if errors.Is(err, repositories.ErrActionNotFound) {
				return ErrActionNotFound
			}
			return fmt.Errorf("failed to find last action: %w", err)
		}

		if err := s.actionRepo.Delete(ctx, tx, last.ID); err != nil {
			return fmt.Errorf("failed to delete action %d: %w", last.ID, err)
		}

		deltaTeam, deltaOpponent := scoreDelta(last.Result)
		if deltaTeam != 0 || deltaOpponent != 0 {
			if err := s.sessionRepo.AddToSetScore(ctx, tx, last.SetID, -deltaTeam, -deltaOpponent); err != nil {
				return fmt.Errorf("failed to revert score of set %d: %w", last.SetID, err)
			}
		}

		set, err := s.sessionRepo.GetSetByID(ctx, tx, last.SetID)
		if err != nil {
			return fmt.Errorf("failed to reload set %d: %w", last.SetID, err)
		}
		updatedSet = set
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast(sessionID, updatedSet)
	return updatedSet, nil
}

func (s *statsService) SaveActionsBatch(ctx context.Context, sessionID, currentUserID int, intents []ActionIntent) (int, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return 0, ErrSessionNotFound
		}
		return 0, fmt.Errorf("failed to get session %d: %w", sessionID, err)
	}
	if err := s.authorizeRecorder(ctx, session.ClubID, currentUserID); err != nil {
		return 0, err
	}

	for _, intent := range intents {
		if !intent.Type.Valid() {
			return 0, ErrInvalidActionType
		}
		if !intent.Result.Valid() {
			return 0, ErrInvalidActionResult
		}
	}

	var lastSet *models.Set

	err = s.tx.WithTx(ctx, func(tx repositories.SQLExecutor) error {
		sets, err := s.sessionRepo.ListSetsBySessionID(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to list sets: %w", err)
		}
		current := models.CurrentSet(sets)
		if current == nil {
			return ErrSetNotFound
		}

		for _, intent := range intents {
			action := &models.Action{
				SessionID: sessionID,
				SetID:     current.ID,
				TeamID:    intent.TeamID,
				PlayerID:  intent.PlayerID,
				CreatorID: currentUserID,
				Type:      intent.Type,
				Result:    intent.Result,
				Zone:      intent.Zone,
			}
			if err := s.actionRepo.Create(ctx, tx, action); err != nil {
				return fmt.Errorf("failed to create batched action: %w", err)
			}

			deltaTeam, deltaOpponent := scoreDelta(intent.Result)
			if deltaTeam != 0 || deltaOpponent != 0 {
				if err := s.sessionRepo.AddToSetScore(ctx, tx, current.ID, deltaTeam, deltaOpponent); err != nil {
					return fmt.Errorf("failed to update score of set %d: %w", current.ID, err)
				}
			}
			current.TeamScore += deltaTeam
			current.OpponentScore += deltaOpponent
		}
		lastSet = current
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.broadcast(sessionID, lastSet)
	return len(intents), nil
}

func (s *statsService) ListSessionSets(ctx context.Context, sessionID int) ([]models.Set, error) {
	sets, err := s.sessionRepo.ListSetsBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sets for session %d: %w", sessionID, err)
	}
	return sets, nil
}

func (s *statsService) ListSessionActions(ctx context.Context, sessionID int) ([]models.Action, error) {
	actions, err := s.actionRepo.ListBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions for session %d: %w", sessionID, err)
	}
	return actions, nil
}

func (s *statsService) SummarizeSession(ctx context.Context, sessionID int) ([]models.PlayerActionSummary, error) {
	summaries, err := s.actionRepo.SummarizeBySessionID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize session %d: %w", sessionID, err)
	}
	return summaries, nil
}

func (s *statsService) broadcast(sessionID int, set *models.Set) {
	if s.broadcaster == nil || set == nil {
		return
	}
	s.broadcaster.BroadcastScore(sessionID, set)
}

func (s *statsService) authorizeRecorder(ctx context.Context, clubID, currentUserID int) error {
	profile, err := s.profileRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to get profile %d: %w", currentUserID, err)
	}
	if !profile.Role.CanEditRoster() {
		return ErrForbiddenOperation
	}
	if profile.Role == models.RoleAdmin {
		return nil
	}
	if profile.ClubID == nil || *profile.ClubID != clubID {
		return ErrForbiddenOperation
	}
	return nil
}
