package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/clubvolley/club-system/models"
	"github.com/clubvolley/club-system/repositories"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.Profile, error)
	Login(ctx context.Context, input LoginInput) (*models.Profile, error)
	GetProfile(ctx context.Context, profileID int) (*models.Profile, error)
}

type RegisterInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	profileRepo repositories.ProfileRepository
}

func NewAuthService(profileRepo repositories.ProfileRepository) AuthService {
	return &authService{profileRepo: profileRepo}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.Profile, error) {
	if input.FirstName == "" || input.LastName == "" || input.Email == "" {
		return nil, ErrValidationFailed
	}
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Новый профиль всегда регистрируется как главный тренер; ассистенты
	// появляются через код клуба и одобрение.
	profile := &models.Profile{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		Role:         models.RoleHeadCoach,
		PasswordHash: string(hashedPassword),
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		if errors.Is(err, repositories.ErrProfileEmailConflict) {
			return nil, ErrEmailConflict
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find profile by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(input.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	profile.PasswordHash = ""
	return profile, nil
}

func (s *authService) GetProfile(ctx context.Context, profileID int) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %d: %w", profileID, err)
	}
	profile.PasswordHash = ""
	return profile, nil
}
