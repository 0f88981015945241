package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/clubvolley/club-system/models"
	"github.com/clubvolley/club-system/repositories"
)

type TeamService interface {
	CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error)
	GetTeamByID(ctx context.Context, teamID int) (*models.Team, error)
	ListClubTeams(ctx context.Context, clubID int) ([]models.Team, error)
	UpdateTeam(ctx context.Context, teamID int, input UpdateTeamInput, currentUserID int) (*models.Team, error)
	DeleteTeam(ctx context.Context, teamID int, currentUserID int) error
}

type CreateTeamInput struct {
	ClubID   int                 `json:"club_id"`
	Name     string              `json:"name"`
	Category models.TeamCategory `json:"category"`
	Year     int                 `json:"year"`

	CreatorID int `json:"-"`
}

type UpdateTeamInput struct {
	Name     *string              `json:"name"`
	Category *models.TeamCategory `json:"category"`
	Year     *int                 `json:"year"`
}

type teamService struct {
	teamRepo    repositories.TeamRepository
	clubRepo    repositories.ClubRepository
	profileRepo repositories.ProfileRepository
}

func NewTeamService(
	teamRepo repositories.TeamRepository,
	clubRepo repositories.ClubRepository,
	profileRepo repositories.ProfileRepository,
) TeamService {
	return &teamService{
		teamRepo:    teamRepo,
		clubRepo:    clubRepo,
		profileRepo: profileRepo,
	}
}

func (s *teamService) CreateTeam(ctx context.Context, input CreateTeamInput) (*models.Team, error) {
	if input.Name == "" {
		return nil, ErrTeamNameRequired
	}
	if !input.Category.Valid() {
		return nil, ErrInvalidCategory
	}

	if err := s.authorizeRosterEditor(ctx, input.ClubID, input.CreatorID); err != nil {
		return nil, err
	}

	team := &models.Team{
		ClubID:   input.ClubID,
		Name:     input.Name,
		Category: input.Category,
		Year:     input.Year,
	}

	if err := s.teamRepo.Create(ctx, team); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTeamNameConflict):
			return nil, ErrTeamNameConflict
		case errors.Is(err, repositories.ErrTeamClubInvalid):
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

func (s *teamService) GetTeamByID(ctx context.Context, teamID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", teamID, err)
	}
	return team, nil
}

func (s *teamService) ListClubTeams(ctx context.Context, clubID int) ([]models.Team, error) {
	teams, err := s.teamRepo.ListByClubID(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams for club %d: %w", clubID, err)
	}
	return teams, nil
}

func (s *teamService) UpdateTeam(ctx context.Context, teamID int, input UpdateTeamInput, currentUserID int) (*models.Team, error) {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeRosterEditor(ctx, team.ClubID, currentUserID); err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrTeamNameRequired
		}
		team.Name = *input.Name
	}
	if input.Category != nil {
		if !input.Category.Valid() {
			return nil, ErrInvalidCategory
		}
		team.Category = *input.Category
	}
	if input.Year != nil {
		team.Year = *input.Year
	}

	if err := s.teamRepo.Update(ctx, team); err != nil {
		if errors.Is(err, repositories.ErrTeamNameConflict) {
			return nil, ErrTeamNameConflict
		}
		return nil, fmt.Errorf("failed to update team %d: %w", teamID, err)
	}
	return team, nil
}

func (s *teamService) DeleteTeam(ctx context.Context, teamID int, currentUserID int) error {
	team, err := s.GetTeamByID(ctx, teamID)
	if err != nil {
		return err
	}
	if err := s.authorizeRosterEditor(ctx, team.ClubID, currentUserID); err != nil {
		return err
	}

	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to delete team %d: %w", teamID, err)
	}
	return nil
}

// authorizeRosterEditor пропускает тренеров клуба (с правом на состав) и админа.
func (s *teamService) authorizeRosterEditor(ctx context.Context, clubID, currentUserID int) error {
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
