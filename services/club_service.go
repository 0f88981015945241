package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/clubvolley/club-system/models"
	"github.com/clubvolley/club-system/repositories"
	"github.com/clubvolley/club-system/storage"
)

type ClubService interface {
	CreateClub(ctx context.Context, input CreateClubInput) (*models.Club, error)
	GetClubByID(ctx context.Context, clubID int) (*models.Club, error)
	// GetOwnClub возвращает (nil, nil), если у пользователя ещё нет клуба:
	// отсутствие клуба — не ошибка, а отдельная ветка интерфейса.
	GetOwnClub(ctx context.Context, currentUserID int) (*models.Club, error)
	UpdateClub(ctx context.Context, clubID int, input UpdateClubInput, currentUserID int) (*models.Club, error)
	UploadCrest(ctx context.Context, clubID int, contentType string, file io.Reader, currentUserID int) (*models.Club, error)
}

type CreateClubInput struct {
	Name         string    `json:"name"`
	City         string    `json:"city"`
	FoundedAt    time.Time `json:"founded_at"`
	ContactEmail *string   `json:"contact_email"`
	ContactPhone *string   `json:"contact_phone"`
	LegalID      *string   `json:"legal_id"`

	OwnerID int `json:"-"`
}

type UpdateClubInput struct {
	Name         *string    `json:"name"`
	City         *string    `json:"city"`
	FoundedAt    *time.Time `json:"founded_at"`
	ContactEmail *string    `json:"contact_email"`
	ContactPhone *string    `json:"contact_phone"`
	LegalID      *string    `json:"legal_id"`
}

type clubService struct {
	clubRepo    repositories.ClubRepository
	profileRepo repositories.ProfileRepository
	uploader    storage.FileUploader
}

func NewClubService(
	clubRepo repositories.ClubRepository,
	profileRepo repositories.ProfileRepository,
	uploader storage.FileUploader,
) ClubService {
	return &clubService{
		clubRepo:    clubRepo,
		profileRepo: profileRepo,
		uploader:    uploader,
	}
}

func (s *clubService) CreateClub(ctx context.Context, input CreateClubInput) (*models.Club, error) {
	if input.Name == "" {
		return nil, ErrClubNameRequired
	}

	owner, err := s.profileRepo.GetByID(ctx, input.OwnerID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get owner %d: %w", input.OwnerID, err)
	}
	if !owner.Role.CanManageClub() {
		return nil, ErrForbiddenOperation
	}

	club := &models.Club{
		OwnerID:      input.OwnerID,
		Name:         input.Name,
		City:         input.City,
		FoundedAt:    input.FoundedAt,
		ContactEmail: input.ContactEmail,
		ContactPhone: input.ContactPhone,
		LegalID:      input.LegalID,
	}

	if err := s.clubRepo.Create(ctx, club); err != nil {
		if errors.Is(err, repositories.ErrClubOwnerConflict) {
			return nil, ErrClubOwnerConflict
		}
		return nil, fmt.Errorf("failed to create club: %w", err)
	}

	// Связываем профиль владельца с клубом. Клуб уже создан, поэтому сбой
	// здесь только логируется выше по стеку через ошибку.
	owner.ClubID = &club.ID
	if err := s.profileRepo.Update(ctx, owner); err != nil {
		return nil, fmt.Errorf("club %d created but failed to bind owner profile: %w", club.ID, err)
	}

	s.populateCrestURL(club)
	return club, nil
}

func (s *clubService) GetClubByID(ctx context.Context, clubID int) (*models.Club, error) {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to get club %d: %w", clubID, err)
	}
	s.populateCrestURL(club)
	return club, nil
}

func (s *clubService) GetOwnClub(ctx context.Context, currentUserID int) (*models.Club, error) {
	club, err := s.clubRepo.GetByOwnerID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get club for owner %d: %w", currentUserID, err)
	}
	s.populateCrestURL(club)
	return club, nil
}

func (s *clubService) UpdateClub(ctx context.Context, clubID int, input UpdateClubInput, currentUserID int) (*models.Club, error) {
	club, err := s.authorizeClubManager(ctx, clubID, currentUserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrClubNameRequired
		}
		club.Name = *input.Name
	}
	if input.City != nil {
		club.City = *input.City
	}
	if input.FoundedAt != nil {
		club.FoundedAt = *input.FoundedAt
	}
	if input.ContactEmail != nil {
		club.ContactEmail = input.ContactEmail
	}
	if input.ContactPhone != nil {
		club.ContactPhone = input.ContactPhone
	}
	if input.LegalID != nil {
		club.LegalID = input.LegalID
	}

	if err := s.clubRepo.Update(ctx, club); err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to update club %d: %w", clubID, err)
	}

	s.populateCrestURL(club)
	return club, nil
}

func (s *clubService) UploadCrest(ctx context.Context, clubID int, contentType string, file io.Reader, currentUserID int) (*models.Club, error) {
	club, err := s.authorizeClubManager(ctx, clubID, currentUserID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("clubs/%d/crest", clubID)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload crest for club %d: %w", clubID, err)
	}

	if err := s.clubRepo.UpdateCrestKey(ctx, clubID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store crest key for club %d: %w", clubID, err)
	}

	club.CrestKey = &result.Key
	s.populateCrestURL(club)
	return club, nil
}

// authorizeClubManager проверяет, что пользователь — владелец клуба или админ.
func (s *clubService) authorizeClubManager(ctx context.Context, clubID, currentUserID int) (*models.Club, error) {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, fmt.Errorf("failed to get club %d: %w", clubID, err)
	}

	if club.OwnerID == currentUserID {
		return club, nil
	}

	profile, err := s.profileRepo.GetByID(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %d: %w", currentUserID, err)
	}
	if profile.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}
	return club, nil
}

func (s *clubService) populateCrestURL(club *models.Club) {
	if club == nil || club.CrestKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*club.CrestKey)
	club.CrestURL = &url
}
