package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubvolley/club-system/models"
	"github.com/clubvolley/club-system/repositories"
)

type PlayerService interface {
	CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error)
	GetPlayerByID(ctx context.Context, playerID int) (*models.Player, error)
	ListTeamPlayers(ctx context.Context, teamID int) ([]models.Player, error)
	UpdatePlayer(ctx context.Context, playerID int, input UpdatePlayerInput, currentUserID int) (*models.Player, error)
	DeletePlayer(ctx context.Context, playerID int, currentUserID int) error

	AddInjuryLog(ctx context.Context, input AddInjuryLogInput) (*models.InjuryLog, error)
	ListInjuryLogs(ctx context.Context, playerID int) ([]models.InjuryLog, error)
}

type CreatePlayerInput struct {
	TeamID     int                   `json:"team_id"`
	FullName   string                `json:"full_name"`
	DocumentID string                `json:"document_id"`
	BirthDate  time.Time             `json:"birth_date"`
	Position   models.PlayerPosition `json:"position"`
	HeightCm   *int                  `json:"height_cm"`
	WeightKg   *int                  `json:"weight_kg"`
	Allergies  *string               `json:"allergies"`

	CreatorID int `json:"-"`
}

type UpdatePlayerInput struct {
	FullName   *string                `json:"full_name"`
	DocumentID *string                `json:"document_id"`
	BirthDate  *time.Time             `json:"birth_date"`
	Position   *models.PlayerPosition `json:"position"`
	HeightCm   *int                   `json:"height_cm"`
	WeightKg   *int                   `json:"weight_kg"`
	Allergies  *string                `json:"allergies"`
}

type AddInjuryLogInput struct {
	PlayerID    int                   `json:"player_id"`
	InjuryDate  time.Time             `json:"injury_date"`
	Description string                `json:"description"`
	Status      models.RecoveryStatus `json:"status"`

	CreatorID int `json:"-"`
}

type playerService struct {
	playerRepo  repositories.PlayerRepository
	injuryRepo  repositories.InjuryLogRepository
	teamRepo    repositories.TeamRepository
	profileRepo repositories.ProfileRepository
}

func NewPlayerService(
	playerRepo repositories.PlayerRepository,
	injuryRepo repositories.InjuryLogRepository,
	teamRepo repositories.TeamRepository,
	profileRepo repositories.ProfileRepository,
) PlayerService {
	return &playerService{
		playerRepo:  playerRepo,
		injuryRepo:  injuryRepo,
		teamRepo:    teamRepo,
		profileRepo: profileRepo,
	}
}

func (s *playerService) CreatePlayer(ctx context.Context, input CreatePlayerInput) (*models.Player, error) {
	if input.FullName == "" {
		return nil, ErrPlayerNameRequired
	}
	if !input.Position.Valid() {
		return nil, ErrInvalidPosition
	}

	if err := s.authorizeForTeam(ctx, input.TeamID, input.CreatorID); err != nil {
		return nil, err
	}

	player := &models.Player{
		TeamID:     input.TeamID,
		FullName:   input.FullName,
		DocumentID: input.DocumentID,
		BirthDate:  input.BirthDate,
		Position:   input.Position,
		HeightCm:   input.HeightCm,
		WeightKg:   input.WeightKg,
		Allergies:  input.Allergies,
	}

	if err := s.playerRepo.Create(ctx, player); err != nil {
		switch {
		case errors.Is(err, repositories.ErrPlayerDocumentConflict):
			return nil, ErrPlayerDocConflict
		case errors.Is(err, repositories.ErrPlayerTeamInvalid):
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

func (s *playerService) GetPlayerByID(ctx context.Context, playerID int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player %d: %w", playerID, err)
	}
	return player, nil
}

func (s *playerService) ListTeamPlayers(ctx context.Context, teamID int) ([]models.Player, error) {
	players, err := s.playerRepo.ListByTeamID(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players for team %d: %w", teamID, err)
	}
	return players, nil
}

func (s *playerService) UpdatePlayer(ctx context.Context, playerID int, input UpdatePlayerInput, currentUserID int) (*models.Player, error) {
	player, err := s.GetPlayerByID(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeForTeam(ctx, player.TeamID, currentUserID); err != nil {
		return nil, err
	}

	if input.FullName != nil {
		if *input.FullName == "" {
			return nil, ErrPlayerNameRequired
		}
		player.FullName = *input.FullName
	}
	if input.DocumentID != nil {
		player.DocumentID = *input.DocumentID
	}
	if input.BirthDate != nil {
		player.BirthDate = *input.BirthDate
	}
	if input.Position != nil {
		if !input.Position.Valid() {
			return nil, ErrInvalidPosition
		}
		player.Position = *input.Position
	}
	if input.HeightCm != nil {
		player.HeightCm = input.HeightCm
	}
	if input.WeightKg != nil {
		player.WeightKg = input.WeightKg
	}
	if input.Allergies != nil {
		player.Allergies = input.Allergies
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		if errors.Is(err, repositories.ErrPlayerDocumentConflict) {
			return nil, ErrPlayerDocConflict
		}
		return nil, fmt.Errorf("failed to update player %d: %w", playerID, err)
	}
	return player, nil
}

func (s *playerService) DeletePlayer(ctx context.Context, playerID int, currentUserID int) error {
	player, err := s.GetPlayerByID(ctx, playerID)
	if err != nil {
		return err
	}
	if err := s.authorizeForTeam(ctx, player.TeamID, currentUserID); err != nil {
		return err
	}

	if err := s.playerRepo.Delete(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return ErrPlayerNotFound
		}
		return fmt.Errorf("failed to delete player %d: %w", playerID, err)
	}
	return nil
}

func (s *playerService) AddInjuryLog(ctx context.Context, input AddInjuryLogInput) (*models.InjuryLog, error) {
	if !input.Status.Valid() {
		return nil, ErrInvalidRecoveryStatus
	}
	if input.Description == "" {
		return nil, ErrValidationFailed
	}

	player, err := s.GetPlayerByID(ctx, input.PlayerID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeForTeam(ctx, player.TeamID, input.CreatorID); err != nil {
		return nil, err
	}

	log := &models.InjuryLog{
		PlayerID:    input.PlayerID,
		InjuryDate:  input.InjuryDate,
		Description: input.Description,
		Status:      input.Status,
	}

	if err := s.injuryRepo.Create(ctx, log); err != nil {
		if errors.Is(err, repositories.ErrInjuryLogPlayerInvalid) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to create injury log: %w", err)
	}
	return log, nil
}

func (s *playerService) ListInjuryLogs(ctx context.Context, playerID int) ([]models.InjuryLog, error) {
	if _, err := s.GetPlayerByID(ctx, playerID); err != nil {
		return nil, err
	}
	logs, err := s.injuryRepo.ListByPlayerID(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list injury logs for player %d: %w", playerID, err)
	}
	return logs, nil
}

func (s *playerService) authorizeForTeam(ctx context.Context, teamID, currentUserID int) error {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to get team %d: %w", teamID, err)
	}

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
	if profile.ClubID == nil || *profile.ClubID != team.ClubID {
		return ErrForbiddenOperation
	}
	return nil
}
