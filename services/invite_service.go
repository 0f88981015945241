package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/clubvolley/club-system/models"
	"github.com/clubvolley/club-system/repositories"
)

const (
	clubCodeLength   = 8                   // символов из алфавита ниже
	clubCodeDuration = 14 * 24 * time.Hour // срок действия кода (14 дней)
	defaultMaxUses   = 5
)

var ErrCodeGeneration = errors.New("failed to generate unique club code")

type InviteService interface {
	GenerateClubCode(ctx context.Context, clubID int, maxUses int, currentUserID int) (*models.ClubCode, error)
	ListClubCodes(ctx context.Context, clubID int, currentUserID int) ([]models.ClubCode, error)
	RevokeClubCode(ctx context.Context, codeID int, clubID int, currentUserID int) error

	// RedeemCode потребляет код и создаёт заявку ассистента на одобрение.
	RedeemCode(ctx context.Context, code string, currentUserID int) (*models.AssistantRequest, error)
	ListPendingRequests(ctx context.Context, clubID int, currentUserID int) ([]models.AssistantRequest, error)
	ApproveRequest(ctx context.Context, requestID int, currentUserID int) error
	RejectRequest(ctx context.Context, requestID int, currentUserID int) error
}

type inviteService struct {
	codeRepo    repositories.ClubCodeRepository
	requestRepo repositories.AssistantRequestRepository
	clubRepo    repositories.ClubRepository
	profileRepo repositories.ProfileRepository
}

func NewInviteService(
	codeRepo repositories.ClubCodeRepository,
	requestRepo repositories.AssistantRequestRepository,
	clubRepo repositories.ClubRepository,
	profileRepo repositories.ProfileRepository,
) InviteService {
	return &inviteService{
		codeRepo:    codeRepo,
		requestRepo: requestRepo,
		clubRepo:    clubRepo,
		profileRepo: profileRepo,
	}
}

// Алфавит без похожих символов (0/O, 1/I), код вводится вручную.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

func (s *inviteService) GenerateClubCode(ctx context.Context, clubID int, maxUses int, currentUserID int) (*models.ClubCode, error) {
	if err := s.authorizeClubOwner(ctx, clubID, currentUserID); err != nil {
		return nil, err
	}
	if maxUses <= 0 {
		maxUses = defaultMaxUses
	}

	maxAttempts := 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := generateCode(clubCodeLength)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCodeGeneration, err)
		}

		clubCode := &models.ClubCode{
			ClubID:    clubID,
			Code:      code,
			MaxUses:   maxUses,
			Status:    models.ClubCodeActive,
			ExpiresAt: time.Now().Add(clubCodeDuration),
		}

		err = s.codeRepo.Create(ctx, clubCode)
		if err == nil {
			return clubCode, nil
		}
		if !errors.Is(err, repositories.ErrClubCodeConflict) {
			if errors.Is(err, repositories.ErrClubCodeClubInvalid) {
				return nil, ErrClubNotFound
			}
			return nil, fmt.Errorf("failed to create club code: %w", err)
		}
		// Коллизия кода, пробуем ещё раз.
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrCodeGeneration, maxAttempts)
}

func (s *inviteService) ListClubCodes(ctx context.Context, clubID int, currentUserID int) ([]models.ClubCode, error) {
	if err := s.authorizeClubOwner(ctx, clubID, currentUserID); err != nil {
		return nil, err
	}

	codes, err := s.codeRepo.ListByClubID(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list codes for club %d: %w", clubID, err)
	}

	// Истёкшие коды не показываем, их подчистит фоновая задача.
	active := make([]models.ClubCode, 0, len(codes))
	now := time.Now()
	for _, code := range codes {
		if now.Before(code.ExpiresAt) {
			active = append(active, code)
		}
	}
	return active, nil
}

func (s *inviteService) RevokeClubCode(ctx context.Context, codeID int, clubID int, currentUserID int) error {
	if err := s.authorizeClubOwner(ctx, clubID, currentUserID); err != nil {
		return err
	}

	if err := s.codeRepo.Revoke(ctx, codeID); err != nil {
		if errors.Is(err, repositories.ErrClubCodeNotFound) {
			return ErrClubCodeNotFound
		}
		return fmt.Errorf("failed to revoke code %d: %w", codeID, err)
	}
	return nil
}

func (s *inviteService) RedeemCode(ctx context.Context, code string, currentUserID int) (*models.AssistantRequest, error) {
	clubCode, err := s.codeRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repositories.ErrClubCodeNotFound) {
			return nil, ErrClubCodeNotFound
		}
		return nil, fmt.Errorf("failed to get club code: %w", err)
	}

	switch {
	case clubCode.Status == models.ClubCodeRevoked:
		return nil, ErrCodeRevoked
	case time.Now().After(clubCode.ExpiresAt):
		return nil, ErrCodeExpired
	case clubCode.Exhausted():
		return nil, ErrCodeExhausted
	}

	profile, err := s.profileRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile %d: %w", currentUserID, err)
	}
	if profile.ClubID != nil {
		return nil, ErrAlreadyInClub
	}

	// Счётчик инкрементируется атомарно с перепроверкой лимита и срока в БД:
	// две одновременные попытки не израсходуют одно использование дважды.
	if err := s.codeRepo.IncrementUses(ctx, clubCode.ID); err != nil {
		if errors.Is(err, repositories.ErrClubCodeNotFound) {
			return nil, ErrCodeExhausted
		}
		return nil, fmt.Errorf("failed to consume code %d: %w", clubCode.ID, err)
	}

	request := &models.AssistantRequest{
		ClubID:    clubCode.ClubID,
		ProfileID: currentUserID,
		CodeID:    clubCode.ID,
		Status:    models.AssistantPending,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		if errors.Is(err, repositories.ErrAssistantRequestConflict) {
			return nil, ErrAlreadyInClub
		}
		return nil, fmt.Errorf("failed to create assistant request: %w", err)
	}
	return request, nil
}

func (s *inviteService) ListPendingRequests(ctx context.Context, clubID int, currentUserID int) ([]models.AssistantRequest, error) {
	if err := s.authorizeApprover(ctx, clubID, currentUserID); err != nil {
		return nil, err
	}

	requests, err := s.requestRepo.ListPendingByClubID(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests for club %d: %w", clubID, err)
	}
	return requests, nil
}

func (s *inviteService) ApproveRequest(ctx context.Context, requestID int, currentUserID int) error {
	request, err := s.getRequestForDecision(ctx, requestID, currentUserID)
	if err != nil {
		return err
	}

	profile, err := s.profileRepo.GetByID(ctx, request.ProfileID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to get profile %d: %w", request.ProfileID, err)
	}

	profile.Role = models.RoleAssistantCoach
	profile.ClubID = &request.ClubID
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return fmt.Errorf("failed to bind assistant %d to club %d: %w", profile.ID, request.ClubID, err)
	}

	if err := s.requestRepo.UpdateStatus(ctx, requestID, models.AssistantApproved); err != nil {
		if errors.Is(err, repositories.ErrAssistantRequestNotFound) {
			return ErrAssistantReqNotFound
		}
		return fmt.Errorf("failed to mark request %d approved: %w", requestID, err)
	}
	return nil
}

func (s *inviteService) RejectRequest(ctx context.Context, requestID int, currentUserID int) error {
	if _, err := s.getRequestForDecision(ctx, requestID, currentUserID); err != nil {
		return err
	}

	if err := s.requestRepo.UpdateStatus(ctx, requestID, models.AssistantRejected); err != nil {
		if errors.Is(err, repositories.ErrAssistantRequestNotFound) {
			return ErrAssistantReqNotFound
		}
		return fmt.Errorf("failed to mark request %d rejected: %w", requestID, err)
	}
	return nil
}

func (s *inviteService) getRequestForDecision(ctx context.Context, requestID, currentUserID int) (*models.AssistantRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repositories.ErrAssistantRequestNotFound) {
			return nil, ErrAssistantReqNotFound
		}
		return nil, fmt.Errorf("failed to get request %d: %w", requestID, err)
	}
	if err := s.authorizeApprover(ctx, request.ClubID, currentUserID); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *inviteService) authorizeClubOwner(ctx context.Context, clubID, currentUserID int) error {
	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return ErrClubNotFound
		}
		return fmt.Errorf("failed to get club %d: %w", clubID, err)
	}
	if club.OwnerID != currentUserID {
		return ErrForbiddenOperation
	}
	return nil
}

func (s *inviteService) authorizeApprover(ctx context.Context, clubID, currentUserID int) error {
	profile, err := s.profileRepo.GetByID(ctx, currentUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to get profile %d: %w", currentUserID, err)
	}
	if !profile.Role.CanApproveAssistants() {
		return ErrForbiddenOperation
	}
	if profile.Role == models.RoleAdmin {
		return nil
	}

	club, err := s.clubRepo.GetByID(ctx, clubID)
	if err != nil {
		if errors.Is(err, repositories.ErrClubNotFound) {
			return ErrClubNotFound
		}
		return fmt.Errorf("failed to get club %d: %w", clubID, err)
	}
	if club.OwnerID != currentUserID {
		return ErrForbiddenOperation
	}
	return nil
}
