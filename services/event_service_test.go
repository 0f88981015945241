package services

import (
	"context"
	"testing"
	"time"

	"github.com/clubvolley/club-system/models"
	"github.com/clubvolley/club-system/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventRepo struct {
	nextID int
	events map[int]*models.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{nextID: 1, events: make(map[int]*models.Event)}
}

func (r *fakeEventRepo) Create(ctx context.Context, event *models.Event) error {
	event.ID = r.nextID
	r.nextID++
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *event
	return &copied, nil
}

func (r *fakeEventRepo) ListVisible(ctx context.Context, viewerID int) ([]models.Event, error) {
	var out []models.Event
	for _, e := range r.events {
		if e.Status != models.EventDraft || e.OrganizerID == viewerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) Update(ctx context.Context, event *models.Event) error {
	if _, ok := r.events[event.ID]; !ok {
		return repositories.ErrEventNotFound
	}
	copied := *event
	r.events[event.ID] = &copied
	return nil
}

func (r *fakeEventRepo) UpdateStatus(ctx context.Context, id int, status models.EventStatus) error {
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.Status = status
	return nil
}

func (r *fakeEventRepo) UpdateCrestKey(ctx context.Context, id int, key *string) error {
	event, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	event.CrestKey = key
	return nil
}

func (r *fakeEventRepo) CloseExpiredRegistrations(ctx context.Context) (int64, error) {
	var closed int64
	now := time.Now()
	for _, e := range r.events {
		if e.Status == models.EventPublished && e.RegDeadline != nil && now.After(*e.RegDeadline) {
			e.Status = models.EventClosed
			closed++
		}
	}
	return closed, nil
}

type fakeRegistrationRepo struct {
	nextID int
	regs   map[int]*models.EventRegistration
}

func newFakeRegistrationRepo() *fakeRegistrationRepo {
	return &fakeRegistrationRepo{nextID: 1, regs: make(map[int]*models.EventRegistration)}
}

func (r *fakeRegistrationRepo) Create(ctx context.Context, reg *models.EventRegistration) error {
	for _, existing := range r.regs {
		if existing.EventID == reg.EventID && existing.TeamID == reg.TeamID {
			return repositories.ErrRegistrationConflict
		}
	}
	reg.ID = r.nextID
	r.nextID++
	copied := *reg
	r.regs[reg.ID] = &copied
	return nil
}

func (r *fakeRegistrationRepo) GetByID(ctx context.Context, id int) (*models.EventRegistration, error) {
	reg, ok := r.regs[id]
	if !ok {
		return nil, repositories.ErrRegistrationNotFound
	}
	copied := *reg
	return &copied, nil
}

func (r *fakeRegistrationRepo) ListByEventID(ctx context.Context, eventID int) ([]models.EventRegistration, error) {
	var out []models.EventRegistration
	for _, reg := range r.regs {
		if reg.EventID == eventID {
			out = append(out, *reg)
		}
	}
	return out, nil
}

func (r *fakeRegistrationRepo) CountAcceptedByEventID(ctx context.Context, eventID int) (int, error) {
	count := 0
	for _, reg := range r.regs {
		if reg.EventID == eventID && reg.Status == models.RegistrationAccepted {
			count++
		}
	}
	return count, nil
}

func (r *fakeRegistrationRepo) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	reg, ok := r.regs[id]
	if !ok {
		return repositories.ErrRegistrationNotFound
	}
	reg.Status = status
	return nil
}

type fakeChatRepo struct {
	nextID   int
	messages []models.EventChatMessage
}

func (r *fakeChatRepo) Create(ctx context.Context, msg *models.EventChatMessage) error {
	r.nextID++
	msg.ID = r.nextID
	msg.CreatedAt = time.Now()
	r.messages = append(r.messages, *msg)
	return nil
}

func (r *fakeChatRepo) ListByEventID(ctx context.Context, eventID int) ([]models.EventChatMessage, error) {
	var out []models.EventChatMessage
	for _, m := range r.messages {
		if m.EventID == eventID {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- сборка ----------------------------------------------------------------

type eventFixture struct {
	service   EventService
	eventRepo *fakeEventRepo
	regRepo   *fakeRegistrationRepo
	chatRepo  *fakeChatRepo
}

const (
	organizerID      = 100
	organizerClub    = 1
	guestCoachID     = 200
	guestClubID      = 2
	guestTeamID      = 20
	secondGuestCoach = 201
	secondGuestClub  = 3
	secondGuestTeam  = 21
)

func newEventFixture(t *testing.T) *eventFixture {
	t.Helper()

	orgClub := organizerClub
	guestClub := guestClubID
	secondClub := secondGuestClub

	teamRepo := &fakeTeamRepo{teams: map[int]*models.Team{
		guestTeamID:     {ID: guestTeamID, ClubID: guestClubID, Name: "Visitors U16"},
		secondGuestTeam: {ID: secondGuestTeam, ClubID: secondGuestClub, Name: "Thirdtown U16"},
	}}
	profileRepo := &fakeProfileRepo{profiles: map[int]*models.Profile{
		organizerID:      {ID: organizerID, Role: models.RoleHeadCoach, ClubID: &orgClub},
		guestCoachID:     {ID: guestCoachID, Role: models.RoleHeadCoach, ClubID: &guestClub},
		secondGuestCoach: {ID: secondGuestCoach, Role: models.RoleHeadCoach, ClubID: &secondClub},
	}}

	f := &eventFixture{
		eventRepo: newFakeEventRepo(),
		regRepo:   newFakeRegistrationRepo(),
		chatRepo:  &fakeChatRepo{},
	}
	f.service = NewEventService(f.eventRepo, f.regRepo, f.chatRepo, teamRepo, profileRepo, nil)
	return f
}

func (f *eventFixture) publishedEvent(t *testing.T, maxParticipants *int) *models.Event {
	t.Helper()
	event, err := f.service.CreateEvent(context.Background(), CreateEventInput{
		Name:            "Spring Cup",
		Type:            models.EventTournament,
		Date:            time.Now().Add(30 * 24 * time.Hour),
		City:            "Riverside",
		MaxParticipants: maxParticipants,
		OrganizerID:     organizerID,
	})
	require.NoError(t, err)
	require.NoError(t, f.service.UpdateEventStatus(context.Background(), event.ID, models.EventPublished, organizerID))
	event.Status = models.EventPublished
	return event
}

// --- тесты -----------------------------------------------------------------

func TestCreateEventStartsAsDraft(t *testing.T) {
	f := newEventFixture(t)

	event, err := f.service.CreateEvent(context.Background(), CreateEventInput{
		Name:        "Spring Cup",
		Type:        models.EventTournament,
		OrganizerID: organizerID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.EventDraft, event.Status)
	assert.Equal(t, organizerClub, event.ClubID)
}

func TestDraftVisibleOnlyToOrganizer(t *testing.T) {
	f := newEventFixture(t)

	event, err := f.service.CreateEvent(context.Background(), CreateEventInput{
		Name:        "Spring Cup",
		Type:        models.EventTournament,
		OrganizerID: organizerID,
	})
	require.NoError(t, err)

	_, err = f.service.GetEventByID(context.Background(), event.ID, organizerID)
	assert.NoError(t, err)

	_, err = f.service.GetEventByID(context.Background(), event.ID, guestCoachID)
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRegisterTeamCreatesPending(t *testing.T) {
	f := newEventFixture(t)
	event := f.publishedEvent(t, nil)

	registration, err := f.service.RegisterTeam(context.Background(), RegisterTeamInput{
		EventID: event.ID,
		TeamID:  guestTeamID,
		CoachID: guestCoachID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RegistrationPending, registration.Status)
}

func TestRegisterTeamRejectsDraftAndClosed(t *testing.T) {
	f := newEventFixture(t)

	event, err := f.service.CreateEvent(context.Background(), CreateEventInput{
		Name:        "Spring Cup",
		Type:        models.EventTournament,
		OrganizerID: organizerID,
	})
	require.NoError(t, err)

	_, err = f.service.RegisterTeam(context.Background(), RegisterTeamInput{
		EventID: event.ID,
		TeamID:  guestTeamID,
		CoachID: guestCoachID,
	})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterTeamRejectsPastDeadline(t *testing.T) {
	f := newEventFixture(t)
	event := f.publishedEvent(t, nil)
	deadline := time.Now().Add(-time.Hour)
	f.eventRepo.events[event.ID].RegDeadline = &deadline

	_, err := f.service.RegisterTeam(context.Background(), RegisterTeamInput{
		EventID: event.ID,
		TeamID:  guestTeamID,
		CoachID: guestCoachID,
	})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterTeamRejectsForeignCoach(t *testing.T) {
	f := newEventFixture(t)
	event := f.publishedEvent(t, nil)

	// Тренер второго клуба не может заявить команду первого.
	_, err := f.service.RegisterTeam(context.Background(), RegisterTeamInput{
		EventID: event.ID,
		TeamID:  guestTeamID,
		CoachID: secondGuestCoach,
	})
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestRegisterTeamRejectsDuplicate(t *testing.T) {
	f := newEventFixture(t)
	event := f.publishedEvent(t, nil)

	_, err := f.service.RegisterTeam(context.Background(), RegisterTeamInput{
		EventID: event.ID,
		TeamID:  guestTeamID,
		CoachID: guestCoachID,
	})
	require.NoError(t, err)

	_, err = f.service.RegisterTeam(context.Background(), RegisterTeamInput{
		EventID: event.ID,
		TeamID:  guestTeamID,
		CoachID: guestCoachID,
	})
	assert.ErrorIs(t, err, ErrRegistrationConflict)
}

func TestDecideRegistrationEnforcesCapacity(t *testing.T) {
	f := newEventFixture(t)
	capacity := 1
	event := f.publishedEvent(t, &capacity)

	first, err := f.service.RegisterTeam(context.Background(), RegisterTeamInput{
		EventID: event.ID,
		TeamID:  guestTeamID,
		CoachID: guestCoachID,
	})
	require.NoError(t, err)
	second, err := f.service.RegisterTeam(context.Background(), RegisterTeamInput{
		EventID: event.ID,
		TeamID:  secondGuestTeam,
		CoachID: secondGuestCoach,
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DecideRegistration(context.Background(), first.ID, models.RegistrationAccepted, organizerID))

	// Лимит в одну команду исчерпан.
	err = f.service.DecideRegistration(context.Background(), second.ID, models.RegistrationAccepted, organizerID)
	assert.ErrorIs(t, err, ErrEventFull)

	// Отклонить всё ещё можно.
	assert.NoError(t, f.service.DecideRegistration(context.Background(), second.ID, models.RegistrationRejected, organizerID))
}

func TestDecideRegistrationRequiresOrganizer(t *testing.T) {
	f := newEventFixture(t)
	event := f.publishedEvent(t, nil)

	registration, err := f.service.RegisterTeam(context.Background(), RegisterTeamInput{
		EventID: event.ID,
		TeamID:  guestTeamID,
		CoachID: guestCoachID,
	})
	require.NoError(t, err)

	err = f.service.DecideRegistration(context.Background(), registration.ID, models.RegistrationAccepted, guestCoachID)
	assert.ErrorIs(t, err, ErrForbiddenOperation)
}

func TestChatRoundTrip(t *testing.T) {
	f := newEventFixture(t)
	event := f.publishedEvent(t, nil)

	_, err := f.service.SendChatMessage(context.Background(), event.ID, "Carpool from Riverside?", guestCoachID)
	require.NoError(t, err)
	_, err = f.service.SendChatMessage(context.Background(), event.ID, "Yes, two seats left", organizerID)
	require.NoError(t, err)

	messages, err := f.service.ListChatMessages(context.Background(), event.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "Carpool from Riverside?", messages[0].Body)
	assert.Equal(t, "Yes, two seats left", messages[1].Body)
}

func TestSendChatMessageRejectsEmptyBody(t *testing.T) {
	f := newEventFixture(t)
	event := f.publishedEvent(t, nil)

	_, err := f.service.SendChatMessage(context.Background(), event.ID, "", guestCoachID)
	assert.ErrorIs(t, err, ErrChatMessageEmpty)
}

func TestGetEventDetails(t *testing.T) {
	f := newEventFixture(t)
	event := f.publishedEvent(t, nil)

	_, err := f.service.RegisterTeam(context.Background(), RegisterTeamInput{
		EventID: event.ID,
		TeamID:  guestTeamID,
		CoachID: guestCoachID,
	})
	require.NoError(t, err)
	_, err = f.service.SendChatMessage(context.Background(), event.ID, "See you there", guestCoachID)
	require.NoError(t, err)

	details, err := f.service.GetEventDetails(context.Background(), event.ID, organizerID)
	require.NoError(t, err)
	assert.Len(t, details.Registrations, 1)
	assert.Len(t, details.Messages, 1)
}

func TestCloseExpiredRegistrations(t *testing.T) {
	f := newEventFixture(t)
	event := f.publishedEvent(t, nil)
	deadline := time.Now().Add(-time.Hour)
	f.eventRepo.events[event.ID].RegDeadline = &deadline

	closed, err := f.service.CloseExpiredRegistrations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), closed)

	updated, err := f.service.GetEventByID(context.Background(), event.ID, organizerID)
	require.NoError(t, err)
	assert.Equal(t, models.EventClosed, updated.Status)
}
