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
	"golang.org/x/sync/errgroup"
)

type EventService interface {
	CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error)
	GetEventByID(ctx context.Context, eventID int, viewerID int) (*models.Event, error)
	// GetEventDetails дополняет событие регистрациями и сообщениями чата.
	GetEventDetails(ctx context.Context, eventID int, viewerID int) (*models.Event, error)
	ListEvents(ctx context.Context, viewerID int) ([]models.Event, error)
	UpdateEvent(ctx context.Context, eventID int, input UpdateEventInput, currentUserID int) (*models.Event, error)
	UpdateEventStatus(ctx context.Context, eventID int, status models.EventStatus, currentUserID int) error
	UploadCrest(ctx context.Context, eventID int, contentType string, file io.Reader, currentUserID int) (*models.Event, error)

	RegisterTeam(ctx context.Context, input RegisterTeamInput) (*models.EventRegistration, error)
	ListRegistrations(ctx context.Context, eventID int, currentUserID int) ([]models.EventRegistration, error)
	DecideRegistration(ctx context.Context, registrationID int, status models.RegistrationStatus, currentUserID int) error

	SendChatMessage(ctx context.Context, eventID int, body string, senderID int) (*models.EventChatMessage, error)
	ListChatMessages(ctx context.Context, eventID int) ([]models.EventChatMessage, error)

	// CloseExpiredRegistrations вызывается планировщиком.
	CloseExpiredRegistrations(ctx context.Context) (int64, error)
}

type CreateEventInput struct {
	Name            string           `json:"name"`
	Type            models.EventType `json:"type"`
	Date            time.Time        `json:"date"`
	City            string           `json:"city"`
	Location        string           `json:"location"`
	Description     *string          `json:"description"`
	Benefits        []string         `json:"benefits"`
	MaxParticipants *int             `json:"max_participants"`
	RegDeadline     *time.Time       `json:"registration_deadline"`

	OrganizerID int `json:"-"`
}

type UpdateEventInput struct {
	Name            *string           `json:"name"`
	Type            *models.EventType `json:"type"`
	Date            *time.Time        `json:"date"`
	City            *string           `json:"city"`
	Location        *string           `json:"location"`
	Description     *string           `json:"description"`
	Benefits        []string          `json:"benefits"`
	MaxParticipants *int              `json:"max_participants"`
	RegDeadline     *time.Time        `json:"registration_deadline"`
}

type RegisterTeamInput struct {
	EventID   int     `json:"event_id"`
	TeamID    int     `json:"team_id"`
	Questions *string `json:"questions"`

	CoachID int `json:"-"`
}

type eventService struct {
	eventRepo   repositories.EventRepository
	regRepo     repositories.RegistrationRepository
	chatRepo    repositories.ChatRepository
	teamRepo    repositories.TeamRepository
	profileRepo repositories.ProfileRepository
	uploader    storage.FileUploader
}

func NewEventService(
	eventRepo repositories.EventRepository,
	regRepo repositories.RegistrationRepository,
	chatRepo repositories.ChatRepository,
	teamRepo repositories.TeamRepository,
	profileRepo repositories.ProfileRepository,
	uploader storage.FileUploader,
) EventService {
	return &eventService{
		eventRepo:   eventRepo,
		regRepo:     regRepo,
		chatRepo:    chatRepo,
		teamRepo:    teamRepo,
		profileRepo: profileRepo,
		uploader:    uploader,
	}
}

func (s *eventService) CreateEvent(ctx context.Context, input CreateEventInput) (*models.Event, error) {
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	if !input.Type.Valid() {
		return nil, ErrInvalidEventType
	}

	organizer, err := s.profileRepo.GetByID(ctx, input.OrganizerID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get organizer %d: %w", input.OrganizerID, err)
	}
	if organizer.ClubID == nil {
		return nil, ErrForbiddenOperation
	}

	benefits := input.Benefits
	if benefits == nil {
		benefits = []string{}
	}

	event := &models.Event{
		OrganizerID:     input.OrganizerID,
		ClubID:          *organizer.ClubID,
		Name:            input.Name,
		Type:            input.Type,
		Date:            input.Date,
		City:            input.City,
		Location:        input.Location,
		Description:     input.Description,
		Benefits:        benefits,
		MaxParticipants: input.MaxParticipants,
		RegDeadline:     input.RegDeadline,
		Status:          models.EventDraft,
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, repositories.ErrEventOrganizerInvalid) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s.populateCrestURL(event)
	return event, nil
}

func (s *eventService) GetEventByID(ctx context.Context, eventID int, viewerID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	// Черновики видит только организатор.
	if event.Status == models.EventDraft && event.OrganizerID != viewerID {
		return nil, ErrEventNotFound
	}
	s.populateCrestURL(event)
	return event, nil
}

func (s *eventService) GetEventDetails(ctx context.Context, eventID int, viewerID int) (*models.Event, error) {
	event, err := s.GetEventByID(ctx, eventID, viewerID)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		regs, err := s.regRepo.ListByEventID(gctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to list registrations: %w", err)
		}
		event.Registrations = regs
		return nil
	})
	g.Go(func() error {
		messages, err := s.chatRepo.ListByEventID(gctx, eventID)
		if err != nil {
			return fmt.Errorf("failed to list chat messages: %w", err)
		}
		event.Messages = messages
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *eventService) ListEvents(ctx context.Context, viewerID int) ([]models.Event, error) {
	events, err := s.eventRepo.ListVisible(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	for i := range events {
		s.populateCrestURL(&events[i])
	}
	return events, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID int, input UpdateEventInput, currentUserID int) (*models.Event, error) {
	event, err := s.authorizeOrganizer(ctx, eventID, currentUserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrValidationFailed
		}
		event.Name = *input.Name
	}
	if input.Type != nil {
		if !input.Type.Valid() {
			return nil, ErrInvalidEventType
		}
		event.Type = *input.Type
	}
	if input.Date != nil {
		event.Date = *input.Date
	}
	if input.City != nil {
		event.City = *input.City
	}
	if input.Location != nil {
		event.Location = *input.Location
	}
	if input.Description != nil {
		event.Description = input.Description
	}
	if input.Benefits != nil {
		event.Benefits = input.Benefits
	}
	if input.MaxParticipants != nil {
		event.MaxParticipants = input.MaxParticipants
	}
	if input.RegDeadline != nil {
		event.RegDeadline = input.RegDeadline
	}

	if err := s.eventRepo.Update(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event %d: %w", eventID, err)
	}
	s.populateCrestURL(event)
	return event, nil
}

func (s *eventService) UpdateEventStatus(ctx context.Context, eventID int, status models.EventStatus, currentUserID int) error {
	if !status.Valid() {
		return ErrInvalidEventStatus
	}
	if _, err := s.authorizeOrganizer(ctx, eventID, currentUserID); err != nil {
		return err
	}
	if err := s.eventRepo.UpdateStatus(ctx, eventID, status); err != nil {
		return fmt.Errorf("failed to update status of event %d: %w", eventID, err)
	}
	return nil
}

func (s *eventService) UploadCrest(ctx context.Context, eventID int, contentType string, file io.Reader, currentUserID int) (*models.Event, error) {
	event, err := s.authorizeOrganizer(ctx, eventID, currentUserID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("events/%d/crest", eventID)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload crest for event %d: %w", eventID, err)
	}
	if err := s.eventRepo.UpdateCrestKey(ctx, eventID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to store crest key for event %d: %w", eventID, err)
	}
	event.CrestKey = &result.Key
	s.populateCrestURL(event)
	return event, nil
}

func (s *eventService) RegisterTeam(ctx context.Context, input RegisterTeamInput) (*models.EventRegistration, error) {
	event, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", input.EventID, err)
	}
	if event.Status != models.EventPublished {
		return nil, ErrRegistrationClosed
	}
	if event.RegDeadline != nil && time.Now().After(*event.RegDeadline) {
		return nil, ErrRegistrationClosed
	}

	team, err := s.teamRepo.GetByID(ctx, input.TeamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team %d: %w", input.TeamID, err)
	}

	coach, err := s.profileRepo.GetByID(ctx, input.CoachID)
	if err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get coach %d: %w", input.CoachID, err)
	}
	if coach.ClubID == nil || *coach.ClubID != team.ClubID {
		return nil, ErrForbiddenOperation
	}

	// Заявка создаётся pending; лимит участников проверяется при принятии.
	registration := &models.EventRegistration{
		EventID:   input.EventID,
		TeamID:    input.TeamID,
		CoachID:   input.CoachID,
		Status:    models.RegistrationPending,
		Questions: input.Questions,
	}

	if err := s.regRepo.Create(ctx, registration); err != nil {
		switch {
		case errors.Is(err, repositories.ErrRegistrationConflict):
			return nil, ErrRegistrationConflict
		case errors.Is(err, repositories.ErrRegistrationInvalid):
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}
	return registration, nil
}

func (s *eventService) ListRegistrations(ctx context.Context, eventID int, currentUserID int) ([]models.EventRegistration, error) {
	if _, err := s.authorizeOrganizer(ctx, eventID, currentUserID); err != nil {
		return nil, err
	}
	regs, err := s.regRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations for event %d: %w", eventID, err)
	}
	return regs, nil
}

func (s *eventService) DecideRegistration(ctx context.Context, registrationID int, status models.RegistrationStatus, currentUserID int) error {
	if status != models.RegistrationAccepted && status != models.RegistrationRejected {
		return ErrInvalidRegStatus
	}

	registration, err := s.regRepo.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to get registration %d: %w", registrationID, err)
	}

	event, err := s.authorizeOrganizer(ctx, registration.EventID, currentUserID)
	if err != nil {
		return err
	}

	if status == models.RegistrationAccepted && event.MaxParticipants != nil {
		accepted, err := s.regRepo.CountAcceptedByEventID(ctx, event.ID)
		if err != nil {
			return fmt.Errorf("failed to count accepted registrations: %w", err)
		}
		if accepted >= *event.MaxParticipants {
			return ErrEventFull
		}
	}

	if err := s.regRepo.UpdateStatus(ctx, registrationID, status); err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return ErrRegistrationNotFound
		}
		return fmt.Errorf("failed to update registration %d: %w", registrationID, err)
	}
	return nil
}

func (s *eventService) SendChatMessage(ctx context.Context, eventID int, body string, senderID int) (*models.EventChatMessage, error) {
	if body == "" {
		return nil, ErrChatMessageEmpty
	}
	if _, err := s.GetEventByID(ctx, eventID, senderID); err != nil {
		return nil, err
	}

	message := &models.EventChatMessage{
		EventID:  eventID,
		SenderID: senderID,
		Body:     body,
	}
	if err := s.chatRepo.Create(ctx, message); err != nil {
		if errors.Is(err, repositories.ErrChatEventInvalid) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to create chat message: %w", err)
	}
	return message, nil
}

func (s *eventService) ListChatMessages(ctx context.Context, eventID int) ([]models.EventChatMessage, error) {
	messages, err := s.chatRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat messages for event %d: %w", eventID, err)
	}
	return messages, nil
}

func (s *eventService) CloseExpiredRegistrations(ctx context.Context) (int64, error) {
	return s.eventRepo.CloseExpiredRegistrations(ctx)
}

func (s *eventService) authorizeOrganizer(ctx context.Context, eventID, currentUserID int) (*models.Event, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d: %w", eventID, err)
	}
	if event.OrganizerID == currentUserID {
		return event, nil
	}

	profile, err := s.profileRepo.GetByID(ctx, currentUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %d: %w", currentUserID, err)
	}
	if profile.Role != models.RoleAdmin {
		return nil, ErrForbiddenOperation
	}
	return event, nil
}

func (s *eventService) populateCrestURL(event *models.Event) {
	if event == nil || event.CrestKey == nil || s.uploader == nil {
		return
	}
	url := s.uploader.GetPublicURL(*event.CrestKey)
	event.CrestURL = &url
}
